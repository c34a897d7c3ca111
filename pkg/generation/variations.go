package generation

// VariationStore manages the alternate texts stored for one message slot.
// It operates on a copy of the slot's state; callers write Items/Cursor back
// to the message after mutating.
type VariationStore struct {
	items  []string
	cursor int
}

func NewVariationStore(items []string, cursor int) *VariationStore {
	s := &VariationStore{
		items:  append([]string(nil), items...),
		cursor: cursor,
	}
	if s.cursor < 0 || s.cursor >= len(s.items) {
		s.cursor = 0
		if len(s.items) > 0 {
			s.cursor = len(s.items) - 1
		}
	}
	return s
}

// Add appends text and moves the cursor to it. A duplicate of the most
// recent entry is not appended; the cursor still moves to the tail.
func (s *VariationStore) Add(text string) {
	if n := len(s.items); n > 0 && s.items[n-1] == text {
		s.cursor = n - 1
		return
	}
	s.items = append(s.items, text)
	s.cursor = len(s.items) - 1
}

// Cycle moves the cursor by direction (+1 next, -1 prev), wrapping at both
// ends. It is a no-op with fewer than two variations.
func (s *VariationStore) Cycle(direction int) {
	n := len(s.items)
	if n < 2 {
		return
	}
	s.cursor = ((s.cursor+direction)%n + n) % n
}

// Delete removes the variation at index and clamps the cursor.
func (s *VariationStore) Delete(index int) {
	if index < 0 || index >= len(s.items) {
		return
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	if s.cursor >= len(s.items) {
		s.cursor = len(s.items) - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// Current returns the selected variation, or "" when empty.
func (s *VariationStore) Current() string {
	if len(s.items) == 0 {
		return ""
	}
	return s.items[s.cursor]
}

func (s *VariationStore) Items() []string { return s.items }

func (s *VariationStore) Cursor() int { return s.cursor }

func (s *VariationStore) Len() int { return len(s.items) }
