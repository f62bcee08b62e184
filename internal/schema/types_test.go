package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSpecCanonical(t *testing.T) {
	explicit := FieldSpec{ID: "manualFolder", CanonicalParam: "folder"}
	assert.Equal(t, "folder", explicit.Canonical())

	fallback := FieldSpec{ID: "limit"}
	assert.Equal(t, "limit", fallback.Canonical())
}

func TestOperationRulePolicyDefaultsToStrictThrow(t *testing.T) {
	rule := OperationRule{Discriminator: "operation"}
	assert.Equal(t, PolicyStrictThrow, rule.Policy())

	rule.UnknownPolicy = PolicyFallbackDefault
	assert.Equal(t, PolicyFallbackDefault, rule.Policy())
}

func TestSchemaIndexLookups(t *testing.T) {
	doc := &Document{
		BlockType: "mailbox",
		Fields: []FieldSpec{
			{ID: "operation"},
			{ID: "folder", CanonicalParam: "folder"},
		},
		Actions: []ActionRule{
			{ID: "readMessages", Params: []string{"folder"}},
		},
	}
	s := NewSchema(doc, map[string][]string{"folder": {"folder"}}, []string{"operation", "folder"})

	assert.Equal(t, "mailbox", s.BlockType)
	assert.NotNil(t, s.Field("operation"))
	assert.Equal(t, "folder", s.Field("folder").Canonical())
	assert.Nil(t, s.Field("missing"))

	assert.NotNil(t, s.Action("readMessages"))
	assert.Nil(t, s.Action("missing"))
}

func TestSchemaFieldReturnsPointerIntoSchema(t *testing.T) {
	// Field must index into the schema's own slice, not copies, so that
	// a single spec instance backs both iteration and lookup.
	doc := &Document{
		BlockType: "mailbox",
		Fields:    []FieldSpec{{ID: "operation"}},
	}
	s := NewSchema(doc, nil, []string{"operation"})

	assert.Same(t, &s.Fields[0], s.Field("operation"))
}
