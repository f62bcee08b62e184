package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/internal/store"
)

func TestCompileSuccess(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"read","manualFolder":"Archive"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "action: readMessages")
	assert.Contains(t, output, `payload: {"folder":"Archive"}`)
}

func TestCompileSuccessJSON(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"read","limit":"25"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mailbox", data["blockType"])
	assert.Equal(t, "readMessages", data["actionId"])

	payload, ok := data["payload"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INBOX", payload["folder"])
	assert.Equal(t, float64(25), payload["limit"])
}

func TestCompileYAMLValuesFile(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.yaml", "operation: read\nfolder: Projects\n")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `{"folder":"Projects"}`)
}

func TestCompileUnknownOperation(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"archive"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "V110")
	assert.Contains(t, buf.String(), "archive")
}

func TestCompileMissingRequired(t *testing.T) {
	dir := writeSchemaDir(t)
	// No value for the discriminator at all.
	valuesPath := writeValuesFile(t, "values.json", `{}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestCompileBlockTypeNotFound(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"read"}`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "ghost", "--values", valuesPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), `block type "ghost" not found`)
}

func TestCompileValuesFileMissing(t *testing.T) {
	dir := writeSchemaDir(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", "/nonexistent/values.json"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "reading values file")
}

func TestCompileValuesFlagRequired(t *testing.T) {
	dir := writeSchemaDir(t)

	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "mailbox"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "values")
}

func TestCompileRecordsToStore(t *testing.T) {
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"read","manualFolder":"Archive"}`)
	storePath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath, "--store", storePath})

	require.NoError(t, cmd.Execute())

	s, err := store.Open(storePath)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListCompilations(context.Background(), "mailbox", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, store.OutcomeValid, rec.Outcome)
	assert.Equal(t, "readMessages", rec.ActionID)
	assert.Equal(t, "Archive", rec.Payload["folder"])
}

func TestCompileRecordsFailureToStore(t *testing.T) {
	// Failed compilations are recorded too; the exit code still reports
	// the failure.
	dir := writeSchemaDir(t)
	valuesPath := writeValuesFile(t, "values.json", `{"operation":"archive"}`)
	storePath := filepath.Join(t.TempDir(), "ledger.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir, "mailbox", "--values", valuesPath, "--store", storePath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	s, openErr := store.Open(storePath)
	require.NoError(t, openErr)
	defer s.Close()

	records, listErr := s.ListCompilations(context.Background(), "", 10)
	require.NoError(t, listErr)
	require.Len(t, records, 1)
	assert.Equal(t, store.OutcomeRejected, records[0].Outcome)
	assert.Empty(t, records[0].ActionID)
}
