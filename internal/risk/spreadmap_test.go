package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpreadMapUnpublishedSymbolIsUnknown(t *testing.T) {
	m := NewSpreadMap()
	_, ok := m.Get("EURUSD")
	assert.False(t, ok)
}

func TestSpreadMapSetThenGet(t *testing.T) {
	m := NewSpreadMap()
	m.Set("EURUSD", 1.2)
	v, ok := m.Get("EURUSD")
	assert.True(t, ok)
	assert.Equal(t, 1.2, v)
}

func TestSpreadMapInvalidateClearsValue(t *testing.T) {
	m := NewSpreadMap()
	m.Set("EURUSD", 1.2)
	m.Invalidate("EURUSD")
	_, ok := m.Get("EURUSD")
	assert.False(t, ok)
}
