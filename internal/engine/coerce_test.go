package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwell/formwell/internal/schema"
)

func TestCoerceValue_String(t *testing.T) {
	v, err := coerceValue(schema.KindString, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	// Empty kind defaults to string.
	v, err = coerceValue("", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestCoerceValue_NumberIntegral(t *testing.T) {
	v, err := coerceValue(schema.KindNumber, "25")
	require.NoError(t, err)
	assert.Equal(t, int64(25), v)

	v, err = coerceValue(schema.KindNumber, " -3 ")
	require.NoError(t, err)
	assert.Equal(t, int64(-3), v)
}

func TestCoerceValue_NumberFloat(t *testing.T) {
	v, err := coerceValue(schema.KindNumber, "2.5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)
}

func TestCoerceValue_NumberInvalid(t *testing.T) {
	_, err := coerceValue(schema.KindNumber, "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
}

func TestCoerceValue_Boolean(t *testing.T) {
	v, err := coerceValue(schema.KindBoolean, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = coerceValue(schema.KindBoolean, "FALSE")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	_, err = coerceValue(schema.KindBoolean, "yes")
	assert.Error(t, err)
}

func TestCoerceValue_Array(t *testing.T) {
	v, err := coerceValue(schema.KindArray, "a, b ,,c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	v, err = coerceValue(schema.KindArray, "solo")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, v)

	v, err = coerceValue(schema.KindArray, " , ,")
	require.NoError(t, err)
	assert.Equal(t, []string{}, v)
}

func TestCoerceValue_JSON(t *testing.T) {
	v, err := coerceValue(schema.KindJSON, `{"count": 3, "ratio": 0.5, "tags": ["a"]}`)
	require.NoError(t, err)

	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(3), obj["count"])
	assert.Equal(t, 0.5, obj["ratio"])
	assert.Equal(t, []any{"a"}, obj["tags"])
}

func TestCoerceValue_JSONInvalid(t *testing.T) {
	_, err := coerceValue(schema.KindJSON, "{nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid json")
}
