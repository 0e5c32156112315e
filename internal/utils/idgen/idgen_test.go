package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewULIDIsUniqueAndOrdered(t *testing.T) {
	first := NewULID()
	second := NewULID()

	assert.True(t, IsULID(first))
	assert.True(t, IsULID(second))
	assert.NotEqual(t, first, second)
	assert.Less(t, first, second)
}

func TestIsULIDRejectsGarbage(t *testing.T) {
	assert.False(t, IsULID("not-a-ulid"))
	assert.False(t, IsULID(""))
}
