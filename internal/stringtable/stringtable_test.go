package stringtable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coredatalabs/tens/internal/stringtable"
)

func TestAdd_DedupesAndAssignsDenseIDs(t *testing.T) {
	table := stringtable.New()
	a := table.Add("alpha")
	b := table.Add("beta")
	aAgain := table.Add("alpha")

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, aAgain)
	assert.Equal(t, 2, table.Len())
}

func TestID_LooksUpWithoutInserting(t *testing.T) {
	table := stringtable.New()
	table.Add("alpha")

	id, ok := table.ID("alpha")
	assert.True(t, ok)
	assert.Equal(t, 0, id)

	_, ok = table.ID("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, table.Len())
}

func TestString_ReturnsInsertedValueByID(t *testing.T) {
	table := stringtable.New()
	table.Add("alpha")
	table.Add("beta")

	s, ok := table.String(1)
	assert.True(t, ok)
	assert.Equal(t, "beta", s)

	_, ok = table.String(99)
	assert.False(t, ok)
}

func TestFromStrings_RebuildsLookups(t *testing.T) {
	table := stringtable.FromStrings([]string{"x", "y", "z"})
	assert.Equal(t, 3, table.Len())
	id, ok := table.ID("y")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, []string{"x", "y", "z"}, table.Strings())
}
