package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/internal/compiler"
	"github.com/formwell/formwell/internal/schema"
)

// mustCompile builds a Schema through the real compiler so tests exercise
// the same precedence and field order a loaded schema gets.
func mustCompile(t *testing.T, doc *schema.Document) *schema.Schema {
	t.Helper()
	s, err := compiler.Compile(doc)
	require.NoError(t, err)
	return s
}

// mailboxDoc is the shared test schema: a read branch with a folder picker
// plus manual entry, a delete branch with two required parameters, and a
// send branch with an array field.
func mailboxDoc() *schema.Document {
	readCond := func() *schema.Condition {
		return &schema.Condition{Field: "operation", Value: schema.Scalar("read")}
	}
	deleteCond := func() *schema.Condition {
		return &schema.Condition{Field: "operation", Value: schema.Scalar("delete")}
	}

	return &schema.Document{
		BlockType: "mailbox",
		Fields: []schema.FieldSpec{
			{ID: "operation", Required: true},
			{ID: "folder", CanonicalParam: "folder", Mode: schema.ModeBasic, Condition: readCond()},
			{ID: "manualFolder", CanonicalParam: "folder", Mode: schema.ModeAdvanced, Condition: readCond()},
			{ID: "limit", Kind: schema.KindNumber, Mode: schema.ModeAdvanced, Condition: readCond()},
			{ID: "messageId", CanonicalParam: "id", Condition: deleteCond()},
			{ID: "confirmDelete", CanonicalParam: "confirm", Kind: schema.KindBoolean, Condition: deleteCond()},
			{ID: "mediaIds", Kind: schema.KindArray, Condition: &schema.Condition{Field: "operation", Value: schema.Scalar("send")}},
		},
		Operation: schema.OperationRule{
			Discriminator: "operation",
			Mapping: map[string]string{
				"read":   "readMessages",
				"send":   "sendMessage",
				"delete": "deleteMessage",
			},
		},
		Actions: []schema.ActionRule{
			{ID: "readMessages", Params: []string{"folder", "limit"}, Defaults: map[string]string{"folder": "INBOX"}},
			{ID: "sendMessage", Params: []string{"mediaIds"}},
			{ID: "deleteMessage", Params: []string{"id", "confirm"}, Requires: []string{"id", "confirm"}},
		},
	}
}

func TestCompile_AdvancedValueWinsWhenBasicEmpty(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{
		"operation":    "read",
		"folder":       "",
		"manualFolder": "Archive",
	})
	require.NoError(t, err)

	assert.Equal(t, "readMessages", result.ActionID)
	assert.Equal(t, "Archive", result.Payload["folder"])
}

func TestCompile_BasicValueTakesPrecedence(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{
		"operation":    "read",
		"folder":       "Receipts",
		"manualFolder": "Archive",
	})
	require.NoError(t, err)

	assert.Equal(t, "Receipts", result.Payload["folder"])
}

func TestCompile_ActionDefaultFillsEmptyParameter(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{"operation": "read"})
	require.NoError(t, err)

	assert.Equal(t, "readMessages", result.ActionID)
	assert.Equal(t, Payload{"folder": "INBOX"}, result.Payload)
}

func TestCompile_UnknownOperationStrictThrow(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	_, err := Compile(s, Values{"operation": "archive"})
	require.Error(t, err)
	require.True(t, IsUnknownOperation(err))

	var unknownErr *UnknownOperationError
	require.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, "archive", unknownErr.Value)
	assert.Equal(t, "operation", unknownErr.Discriminator)
}

func TestCompile_FallbackDefaultPolicy(t *testing.T) {
	doc := mailboxDoc()
	doc.Operation.UnknownPolicy = schema.PolicyFallbackDefault
	doc.Operation.Default = "readMessages"
	s := mustCompile(t, doc)

	result, err := Compile(s, Values{"operation": "archive"})
	require.NoError(t, err)
	assert.Equal(t, "readMessages", result.ActionID)
}

func TestCompile_AggregatesAllMissingRequired(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	_, err := Compile(s, Values{"operation": "delete"})
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "deleteMessage", ve.ActionID)
	require.Len(t, ve.Violations, 2)
	assert.Equal(t, "id", ve.Violations[0].Param)
	assert.Equal(t, CodeMissingRequired, ve.Violations[0].Code)
	assert.Equal(t, "confirm", ve.Violations[1].Param)
	assert.Equal(t, CodeMissingRequired, ve.Violations[1].Code)
}

func TestCompile_NumericCoercion(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{"operation": "read", "limit": "25"})
	require.NoError(t, err)
	assert.Equal(t, int64(25), result.Payload["limit"])
}

func TestCompile_EmptyValueOmittedNeverZeroCoerced(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{"operation": "read", "limit": ""})
	require.NoError(t, err)

	_, present := result.Payload["limit"]
	assert.False(t, present)
}

func TestCompile_ArraySplitting(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{"operation": "send", "mediaIds": "a, b ,,c"})
	require.NoError(t, err)
	assert.Equal(t, "sendMessage", result.ActionID)
	assert.Equal(t, []string{"a", "b", "c"}, result.Payload["mediaIds"])
}

func TestCompile_InvalidCoercionIsViolation(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	_, err := Compile(s, Values{"operation": "read", "limit": "lots"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "limit", ve.Violations[0].Param)
	assert.Equal(t, CodeInvalidValue, ve.Violations[0].Code)
}

func TestCompile_PayloadContainsOnlyActionParams(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	// A value left behind on the hidden read branch never leaks into the
	// delete payload.
	result, err := Compile(s, Values{
		"operation":     "delete",
		"messageId":     "m-1",
		"confirmDelete": "true",
		"manualFolder":  "Archive",
	})
	require.NoError(t, err)

	assert.Equal(t, "deleteMessage", result.ActionID)
	assert.Equal(t, Payload{"id": "m-1", "confirm": true}, result.Payload)
}

func TestCompile_HiddenFieldValueDoesNotResolve(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	// manualFolder only shows on the read branch; on delete its stale value
	// must not satisfy anything or appear anywhere.
	result, err := Compile(s, Values{
		"operation":     "delete",
		"messageId":     "m-1",
		"confirmDelete": "false",
		"folder":        "Receipts",
	})
	require.NoError(t, err)
	_, present := result.Payload["folder"]
	assert.False(t, present)
}

func TestCompile_RequiresAny(t *testing.T) {
	doc := mailboxDoc()
	doc.Actions[1].RequiresAny = [][]string{{"mediaIds", "folder"}}
	s := mustCompile(t, doc)

	_, err := Compile(s, Values{"operation": "send"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, CodeRequiresAnyUnmet, ve.Violations[0].Code)
	assert.Equal(t, "mediaIds|folder", ve.Violations[0].Param)

	result, err := Compile(s, Values{"operation": "send", "mediaIds": "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.Payload["mediaIds"])
}

func TestCompile_UnreadySupplierEscalatesToV103(t *testing.T) {
	doc := &schema.Document{
		BlockType: "upload",
		Fields: []schema.FieldSpec{
			{ID: "operation"},
			{ID: "account"},
			{ID: "targetFolder", CanonicalParam: "folder", DependsOn: []string{"account"}},
		},
		Operation: schema.OperationRule{
			Discriminator: "operation",
			Mapping:       map[string]string{"move": "moveFile"},
		},
		Actions: []schema.ActionRule{
			{ID: "moveFile", Params: []string{"folder"}, Requires: []string{"folder"}},
		},
	}
	s := mustCompile(t, doc)

	// folder is required and its only supplier waits on account: report the
	// readiness problem, not a bare missing-value complaint.
	_, err := Compile(s, Values{"operation": "move"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "folder", ve.Violations[0].Param)
	assert.Equal(t, CodeDependencyNotReady, ve.Violations[0].Code)

	// With the dependency satisfied but the value still empty, it is a plain
	// missing-required violation.
	_, err = Compile(s, Values{"operation": "move", "account": "acme"})
	var ve2 *ValidationError
	require.ErrorAs(t, err, &ve2)
	require.Len(t, ve2.Violations, 1)
	assert.Equal(t, CodeMissingRequired, ve2.Violations[0].Code)
}

func TestCompile_FieldLevelRequiredFlag(t *testing.T) {
	doc := mailboxDoc()
	// Make the folder picker itself required on the read branch.
	doc.Fields[1].Required = true
	doc.Actions[0].Defaults = nil
	s := mustCompile(t, doc)

	_, err := Compile(s, Values{"operation": "read"})
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Len(t, ve.Violations, 1)
	assert.Equal(t, "folder", ve.Violations[0].Param)
	assert.Equal(t, CodeMissingRequired, ve.Violations[0].Code)

	// The flag only binds while the field is visible: on the send branch the
	// folder picker is hidden and compilation succeeds without it.
	_, err = Compile(s, Values{"operation": "send", "mediaIds": "a"})
	require.NoError(t, err)
}

func TestCompile_NeverReturnsPayloadAndError(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	result, err := Compile(s, Values{"operation": "delete"})
	assert.Nil(t, result)
	assert.Error(t, err)

	result, err = Compile(s, Values{"operation": "read"})
	assert.NotNil(t, result)
	assert.NoError(t, err)
}

func TestCompile_DeterministicAcrossRepeatedCalls(t *testing.T) {
	s := mustCompile(t, mailboxDoc())
	values := Values{"operation": "read", "manualFolder": "Archive", "limit": "7"}

	first, err := Compile(s, values)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Compile(s, values)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
