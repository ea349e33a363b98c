package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry[string]()
	removeA := registry.Add("a")
	registry.Add("b")
	removeC := registry.Add("c")
	assert.Equal(t, []string{"a", "b", "c"}, registry.Values())

	removeA()
	removeA()
	removeC()
	assert.Equal(t, []string{"b"}, registry.Values())
	assert.Equal(t, 1, registry.Len())

	registry.Add("d")
	assert.Equal(t, []string{"b", "d"}, registry.Values())
}
