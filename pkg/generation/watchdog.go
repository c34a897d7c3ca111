package generation

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultStallCheck is the poll interval for silence detection.
	DefaultStallCheck = time.Second

	// DefaultStallAfter is how long a nominally streaming session may stay
	// silent before it is considered stalled.
	DefaultStallAfter = 8 * time.Second

	// DefaultSoftTimeout bounds total session duration cooperatively.
	DefaultSoftTimeout = 30 * time.Second

	// DefaultHardTimeout forces cancellation even when the cooperative stop
	// failed to take the session down.
	DefaultHardTimeout = 60 * time.Second
)

// WatchdogTimings groups the watchdog thresholds so tests can compress time.
type WatchdogTimings struct {
	Check       time.Duration
	StallAfter  time.Duration
	SoftTimeout time.Duration
	HardTimeout time.Duration
}

func DefaultWatchdogTimings() WatchdogTimings {
	return WatchdogTimings{
		Check:       DefaultStallCheck,
		StallAfter:  DefaultStallAfter,
		SoftTimeout: DefaultSoftTimeout,
		HardTimeout: DefaultHardTimeout,
	}
}

// Watchdog detects a session that receives no data, as opposed to one that
// is cleanly slow. On stall it invokes stop exactly once per session and
// disarms itself; the soft timeout also goes through stop, while the hard
// timeout bypasses the controller entirely via kill.
type Watchdog struct {
	timings WatchdogTimings
	stop    func()
	kill    func()

	startedAt  time.Time
	lastDelta  atomic.Int64 // unix nanos of the last observed delta
	stalled    atomic.Bool
	softFired  atomic.Bool
	hardFired  atomic.Bool
	closeOnce  sync.Once
	stopTicker chan struct{}
	done       chan struct{}
}

// NewWatchdog arms the watchdog. stop is the cooperative path
// (Controller.Stop); kill cancels the session context outright.
func NewWatchdog(timings WatchdogTimings, stop, kill func()) *Watchdog {
	w := &Watchdog{
		timings:    timings,
		stop:       stop,
		kill:       kill,
		startedAt:  time.Now(),
		stopTicker: make(chan struct{}),
		done:       make(chan struct{}),
	}
	w.lastDelta.Store(w.startedAt.UnixNano())
	go w.run()
	return w
}

// Observe records that a content delta arrived, resetting the silence clock.
func (w *Watchdog) Observe() {
	w.lastDelta.Store(time.Now().UnixNano())
}

func (w *Watchdog) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.timings.Check)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			w.check(now)
		case <-w.stopTicker:
			return
		}
	}
}

func (w *Watchdog) check(now time.Time) {
	elapsed := now.Sub(w.startedAt)

	if elapsed >= w.timings.HardTimeout {
		if w.hardFired.CompareAndSwap(false, true) {
			w.kill()
		}
		return
	}

	if elapsed >= w.timings.SoftTimeout {
		if w.softFired.CompareAndSwap(false, true) {
			w.stop()
		}
		return
	}

	silence := now.Sub(time.Unix(0, w.lastDelta.Load()))
	if silence >= w.timings.StallAfter {
		if w.stalled.CompareAndSwap(false, true) {
			w.stop()
		}
	}
}

// Close disarms the watchdog. Safe to call more than once.
func (w *Watchdog) Close() {
	w.closeOnce.Do(func() {
		close(w.stopTicker)
	})
	<-w.done
}
