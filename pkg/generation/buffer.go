package generation

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultFlushInterval bounds how often streamed content becomes
	// visible to the client.
	DefaultFlushInterval = 50 * time.Millisecond

	// DefaultFlushThreshold forces an early flush on large bursts.
	DefaultFlushThreshold = 512
)

// UpdateBuffer coalesces rapid content deltas into periodic flushes so the
// visible message is not mutated on every chunk. Deltas are flushed in
// arrival order; coalescing never reorders them.
type UpdateBuffer struct {
	interval  time.Duration
	threshold int
	flush     func(text string)

	mu     sync.Mutex
	buf    strings.Builder
	closed bool

	stop chan struct{}
	done chan struct{}
}

// NewUpdateBuffer starts the flush loop. flush is invoked with accumulated
// text under the buffer's lock, so it must not call back into the buffer.
func NewUpdateBuffer(interval time.Duration, threshold int, flush func(text string)) *UpdateBuffer {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if threshold <= 0 {
		threshold = DefaultFlushThreshold
	}

	b := &UpdateBuffer{
		interval:  interval,
		threshold: threshold,
		flush:     flush,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *UpdateBuffer) run() {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.mu.Lock()
			b.flushLocked()
			b.mu.Unlock()
		case <-b.stop:
			return
		}
	}
}

// Append adds a delta to the pending buffer. Crossing the size threshold
// flushes immediately instead of waiting for the ticker.
func (b *UpdateBuffer) Append(delta string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.buf.WriteString(delta)
	if b.buf.Len() >= b.threshold {
		b.flushLocked()
	}
}

func (b *UpdateBuffer) flushLocked() {
	if b.buf.Len() == 0 {
		return
	}
	text := b.buf.String()
	b.buf.Reset()
	b.flush(text)
}

// Close stops the ticker and performs one final forced flush of whatever is
// still buffered, regardless of the interval state.
func (b *UpdateBuffer) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stop)
	<-b.done

	b.mu.Lock()
	b.flushLocked()
	b.mu.Unlock()
}
