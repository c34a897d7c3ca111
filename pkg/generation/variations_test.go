package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariationStoreAdd(t *testing.T) {
	s := NewVariationStore(nil, 0)

	s.Add("A")
	s.Add("B")

	assert.Equal(t, []string{"A", "B"}, s.Items())
	assert.Equal(t, 1, s.Cursor())
	assert.Equal(t, "B", s.Current())
}

func TestVariationStoreNoConsecutiveDuplicates(t *testing.T) {
	s := NewVariationStore(nil, 0)

	s.Add("A")
	s.Add("A")

	assert.Equal(t, []string{"A"}, s.Items())
	assert.Equal(t, 0, s.Cursor())

	// A duplicate of an OLDER entry is still stored
	s.Add("B")
	s.Add("A")
	assert.Equal(t, []string{"A", "B", "A"}, s.Items())
}

func TestVariationStoreAddMovesCursorToTail(t *testing.T) {
	s := NewVariationStore([]string{"A", "B", "C"}, 0)

	s.Add("D")

	assert.Equal(t, 3, s.Cursor())
	assert.Equal(t, "D", s.Current())
}

func TestVariationStoreCycleWraps(t *testing.T) {
	s := NewVariationStore([]string{"A", "B", "C"}, 0)

	s.Cycle(+1)
	assert.Equal(t, "B", s.Current())
	s.Cycle(+1)
	assert.Equal(t, "C", s.Current())
	s.Cycle(+1)
	assert.Equal(t, "A", s.Current(), "next past the end wraps to index 0")

	s.Cycle(-1)
	assert.Equal(t, "C", s.Current(), "prev before the start wraps to the last index")
}

func TestVariationStoreCycleLaw(t *testing.T) {
	// Cycling next len(items) times returns to the starting index
	s := NewVariationStore([]string{"A", "B", "C", "D"}, 2)

	for i := 0; i < s.Len(); i++ {
		s.Cycle(+1)
	}

	assert.Equal(t, 2, s.Cursor())
}

func TestVariationStoreCycleNoOpBelowTwo(t *testing.T) {
	s := NewVariationStore([]string{"only"}, 0)

	s.Cycle(+1)
	s.Cycle(-1)

	assert.Equal(t, 0, s.Cursor())

	empty := NewVariationStore(nil, 0)
	empty.Cycle(+1)
	assert.Equal(t, 0, empty.Cursor())
	assert.Equal(t, "", empty.Current())
}

func TestVariationStoreDelete(t *testing.T) {
	s := NewVariationStore([]string{"A", "B", "C"}, 2)

	s.Delete(2)

	assert.Equal(t, []string{"A", "B"}, s.Items())
	assert.Equal(t, 1, s.Cursor())

	s.Delete(5) // out of range: no-op
	assert.Equal(t, []string{"A", "B"}, s.Items())
}
