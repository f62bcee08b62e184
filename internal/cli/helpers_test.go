package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const mailboxYAML = `blockType: mailbox
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
  - id: limit
    kind: number
    mode: advanced
    condition:
      field: operation
      value: read
operation:
  discriminator: operation
  mapping:
    read: readMessages
actions:
  - id: readMessages
    params: [folder, limit]
    defaults:
      folder: INBOX
`

// writeSchemaDir creates a temp directory holding the mailbox schema.
func writeSchemaDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "mailbox.yaml"), []byte(mailboxYAML), 0644)
	require.NoError(t, err)
	return dir
}

// writeValuesFile writes a values file and returns its path.
func writeValuesFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
