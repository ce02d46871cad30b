package status

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCoerceID(t *testing.T) {
	assert.Equal(t, "42", CoerceID(42))
	assert.Equal(t, "42", CoerceID(int64(42)))
	assert.Equal(t, "42", CoerceID("42"))
	assert.Equal(t, "42", CoerceID(float64(42))) // json.Unmarshal delivers float64
	assert.Equal(t, "42.5", CoerceID(42.5))
	assert.Equal(t, "", CoerceID(nil))

	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", CoerceID(id))
}

func TestSameID(t *testing.T) {
	assert.True(t, SameID(42, "42"))
	assert.True(t, SameID(float64(7), int64(7)))
	assert.False(t, SameID("42", "43"))
	assert.False(t, SameID(nil, "0"))
}
