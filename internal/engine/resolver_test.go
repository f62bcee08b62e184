package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCanonical_PrecedenceOrder(t *testing.T) {
	s := mustCompile(t, mailboxDoc())
	values := Values{
		"operation":    "read",
		"folder":       "Receipts",
		"manualFolder": "Archive",
	}

	v, ok := ResolveCanonical(s, "folder", values)
	require.True(t, ok)
	assert.Equal(t, "Receipts", v)
}

func TestResolveCanonical_FallsThroughEmptyValues(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	v, ok := ResolveCanonical(s, "folder", Values{
		"operation":    "read",
		"folder":       "   ",
		"manualFolder": "Archive",
	})
	require.True(t, ok)
	assert.Equal(t, "Archive", v)
}

func TestResolveCanonical_HiddenFieldsNeverContribute(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	// Both folder fields are gated on operation=read.
	_, ok := ResolveCanonical(s, "folder", Values{
		"operation":    "delete",
		"manualFolder": "Archive",
	})
	assert.False(t, ok)
}

func TestResolveCanonical_UnknownCanonical(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	_, ok := ResolveCanonical(s, "nope", Values{"operation": "read"})
	assert.False(t, ok)
}

func TestEffectiveValues_OnlyVisibleBranch(t *testing.T) {
	s := mustCompile(t, mailboxDoc())

	effective := EffectiveValues(s, Values{
		"operation":    "delete",
		"messageId":    "m-1",
		"manualFolder": "Archive",
	})

	assert.Equal(t, "delete", effective["operation"])
	assert.Equal(t, "m-1", effective["id"])
	_, ok := effective["folder"]
	assert.False(t, ok)
}

func TestEffectiveValues_Idempotent(t *testing.T) {
	s := mustCompile(t, mailboxDoc())
	values := Values{"operation": "read", "manualFolder": "Archive"}

	first := EffectiveValues(s, values)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, EffectiveValues(s, values))
	}
}
