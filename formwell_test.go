package formwell_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	formwell "github.com/formwell/formwell"
)

const mailboxSchema = `
blockType: mailbox
fields:
  - id: operation
    required: true
  - id: folder
    canonicalParam: folder
    mode: basic
    condition:
      field: operation
      value: read
  - id: manualFolder
    canonicalParam: folder
    mode: advanced
    condition:
      field: operation
      value: read
operation:
  discriminator: operation
  mapping:
    read: readMessages
    delete: deleteMessage
actions:
  - id: readMessages
    params: [folder]
    defaults:
      folder: INBOX
  - id: deleteMessage
    params: []
`

func TestLoadYAML_AndCompile(t *testing.T) {
	sch, err := formwell.LoadYAML([]byte(mailboxSchema))
	require.NoError(t, err)

	result, err := formwell.Compile(sch, formwell.Values{
		"operation":    "read",
		"folder":       "",
		"manualFolder": "Archive",
	})
	require.NoError(t, err)

	assert.Equal(t, "readMessages", result.ActionID)
	assert.Equal(t, "Archive", result.Payload["folder"])
}

func TestLoadYAML_RejectsDefectiveSchema(t *testing.T) {
	const broken = `
blockType: broken
fields:
  - id: a
    condition:
      field: missing
      value: x
operation:
  discriminator: a
  mapping:
    x: act
actions:
  - id: act
    params: []
`
	_, err := formwell.LoadYAML([]byte(broken))
	require.Error(t, err)

	var schemaErr *formwell.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "broken", schemaErr.BlockType)
	assert.NotEmpty(t, schemaErr.Errors)
}

func TestVisibleFields_AndEffectiveValues(t *testing.T) {
	sch, err := formwell.LoadYAML([]byte(mailboxSchema))
	require.NoError(t, err)

	visible := formwell.VisibleFields(sch, formwell.Values{"operation": "delete"})
	assert.Contains(t, visible, "operation")
	assert.NotContains(t, visible, "folder")
	assert.NotContains(t, visible, "manualFolder")

	// A hidden field's value never leaks into the effective set.
	effective := formwell.EffectiveValues(sch, formwell.Values{
		"operation":    "delete",
		"manualFolder": "Archive",
	})
	assert.Equal(t, "delete", effective["operation"])
	_, ok := effective["folder"]
	assert.False(t, ok)
}

func TestReadyFields(t *testing.T) {
	const chained = `
blockType: upload
fields:
  - id: account
    required: true
  - id: drive
    dependsOn: [account]
  - id: path
    dependsOn: [drive]
operation:
  discriminator: account
  mapping:
    personal: uploadFile
actions:
  - id: uploadFile
    params: []
`
	sch, err := formwell.LoadYAML([]byte(chained))
	require.NoError(t, err)

	ready := formwell.ReadyFields(sch, formwell.Values{"account": "personal"})
	assert.Contains(t, ready, "account")
	assert.Contains(t, ready, "drive")
	assert.NotContains(t, ready, "path")

	assert.False(t, formwell.IsReady(sch, "path", formwell.Values{"account": "personal"}))
	assert.True(t, formwell.IsReady(sch, "path", formwell.Values{
		"account": "personal",
		"drive":   "shared",
	}))
}

func TestCompile_UnknownOperation(t *testing.T) {
	sch, err := formwell.LoadYAML([]byte(mailboxSchema))
	require.NoError(t, err)

	_, err = formwell.Compile(sch, formwell.Values{"operation": "archive"})
	require.Error(t, err)

	var unknownErr *formwell.UnknownOperationError
	require.True(t, errors.As(err, &unknownErr))
	assert.Equal(t, "archive", unknownErr.Value)
}
