package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/internal/schema"
)

func uploadDoc() *schema.Document {
	return &schema.Document{
		BlockType: "upload",
		Fields: []schema.FieldSpec{
			{ID: "account"},
			{ID: "drive", DependsOn: []string{"account"}},
			{ID: "path", DependsOn: []string{"account", "drive"}},
		},
		Operation: schema.OperationRule{
			Discriminator: "account",
			Mapping:       map[string]string{"acme": "upload"},
		},
		Actions: []schema.ActionRule{
			{ID: "upload", Params: []string{"path"}},
		},
	}
}

func TestIsReady_NoDependencies(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	assert.True(t, IsReady(s, "account", Values{}))
}

func TestIsReady_DependencyChain(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	assert.False(t, IsReady(s, "drive", Values{}))
	assert.True(t, IsReady(s, "drive", Values{"account": "acme"}))

	assert.False(t, IsReady(s, "path", Values{"account": "acme"}))
	assert.True(t, IsReady(s, "path", Values{"account": "acme", "drive": "d-1"}))
}

func TestIsReady_UnknownFieldNeverReady(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	assert.False(t, IsReady(s, "nope", Values{}))
}

func TestCheckReady_ReportsMissingDependencies(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	err := CheckReady(s, "path", Values{"account": "acme"})
	require.Error(t, err)
	require.True(t, IsDependencyNotReady(err))

	var notReady *DependencyNotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, "path", notReady.FieldID)
	assert.Equal(t, []string{"drive"}, notReady.Missing)
}

func TestCheckReady_WhitespaceValueIsEmpty(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	assert.False(t, IsReady(s, "drive", Values{"account": "   "}))
}

func TestReadyFields(t *testing.T) {
	s := mustCompile(t, uploadDoc())

	ready := ReadyFields(s, Values{"account": "acme"})
	assert.Contains(t, ready, "account")
	assert.Contains(t, ready, "drive")
	assert.NotContains(t, ready, "path")
}

func TestActiveFields_VisibleAndReady(t *testing.T) {
	doc := uploadDoc()
	doc.Fields[1].Condition = &schema.Condition{Field: "account", Value: schema.Scalar("acme")}
	s := mustCompile(t, doc)

	active := ActiveFields(s, Values{"account": "other"})
	assert.Contains(t, active, "account")
	assert.NotContains(t, active, "drive") // hidden
	assert.NotContains(t, active, "path")  // drive empty

	active = ActiveFields(s, Values{"account": "acme", "drive": "d-1"})
	assert.Contains(t, active, "drive")
	assert.Contains(t, active, "path")
}
