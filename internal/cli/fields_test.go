package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsTextOutput(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"read","manualFolder":"Archive"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewFieldsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "schema: mailbox")
	assert.Contains(t, output, "[active]")
	assert.Contains(t, output, `folder = "Archive"`)
}

func TestFieldsJSONOutput(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"delete"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewFieldsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string       `json:"status"`
		Data   FieldsOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "mailbox", resp.Data.BlockType)
	require.Len(t, resp.Data.Fields, 4)

	states := make(map[string]FieldState)
	for _, f := range resp.Data.Fields {
		states[f.ID] = f
	}

	// The discriminator is always visible; read-gated fields are hidden
	// for operation=delete.
	assert.True(t, states["operation"].Visible)
	assert.False(t, states["folder"].Visible)
	assert.False(t, states["manualFolder"].Visible)
	assert.Equal(t, "folder", states["manualFolder"].CanonicalParam)

	// Hidden fields contribute nothing to the effective values.
	assert.Equal(t, map[string]string{"operation": "delete"}, resp.Data.Effective)
}

func TestFieldsWaitingOnDependency(t *testing.T) {
	dir := t.TempDir()
	uploadYAML := `blockType: upload
fields:
  - id: account
  - id: drive
    dependsOn: [account]
  - id: path
    dependsOn: [drive]
operation:
  discriminator: account
  mapping:
    work: store
actions:
  - id: store
    params: [path]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upload.yaml"), []byte(uploadYAML), 0644))
	valuesPath := writeValuesFile(t, "values.json", `{"account":"work"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewFieldsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "upload", "--values", valuesPath})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Data FieldsOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))

	states := make(map[string]FieldState)
	for _, f := range resp.Data.Fields {
		states[f.ID] = f
	}

	assert.True(t, states["account"].Ready)
	assert.True(t, states["drive"].Ready)
	assert.False(t, states["path"].Ready)
	assert.Equal(t, []string{"drive"}, states["path"].WaitingOn)
}

func TestFieldsBlockTypeNotFound(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewFieldsCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "ghost", "--values", valuesPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
