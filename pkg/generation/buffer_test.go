package generation

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flushRecorder struct {
	mu      sync.Mutex
	flushes []string
}

func (r *flushRecorder) flush(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushes = append(r.flushes, text)
}

func (r *flushRecorder) joined() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.flushes, "")
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flushes)
}

func TestUpdateBufferPreservesConcatenation(t *testing.T) {
	// Buffering only affects timing: the concatenation of flushes must
	// equal the concatenation of deltas in arrival order.
	rec := &flushRecorder{}
	b := NewUpdateBuffer(5*time.Millisecond, 1024, rec.flush)

	deltas := []string{"The ", "quick ", "brown ", "fox ", "jumps"}
	for _, d := range deltas {
		b.Append(d)
		time.Sleep(2 * time.Millisecond)
	}
	b.Close()

	assert.Equal(t, strings.Join(deltas, ""), rec.joined())
}

func TestUpdateBufferCoalesces(t *testing.T) {
	rec := &flushRecorder{}
	b := NewUpdateBuffer(time.Hour, 1024, rec.flush) // ticker never fires

	b.Append("a")
	b.Append("b")
	b.Append("c")
	b.Close()

	assert.Equal(t, 1, rec.count(), "rapid deltas coalesce into one flush")
	assert.Equal(t, "abc", rec.joined())
}

func TestUpdateBufferSizeThreshold(t *testing.T) {
	rec := &flushRecorder{}
	b := NewUpdateBuffer(time.Hour, 4, rec.flush)

	b.Append("abcdef") // crosses threshold immediately

	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "abcdef", rec.joined())
	b.Close()
}

func TestUpdateBufferFinalFlushOnClose(t *testing.T) {
	rec := &flushRecorder{}
	b := NewUpdateBuffer(time.Hour, 1024, rec.flush)

	b.Append("tail")
	b.Close()

	assert.Equal(t, "tail", rec.joined(), "Close forces a final flush")

	// Append after Close is dropped, Close is idempotent
	b.Append("late")
	b.Close()
	assert.Equal(t, "tail", rec.joined())
}
