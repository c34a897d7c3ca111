package generation

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchdogStopsStalledSessionOnce(t *testing.T) {
	var stops, kills atomic.Int32

	w := NewWatchdog(WatchdogTimings{
		Check:       5 * time.Millisecond,
		StallAfter:  20 * time.Millisecond,
		SoftTimeout: time.Hour,
		HardTimeout: time.Hour,
	}, func() { stops.Add(1) }, func() { kills.Add(1) })
	defer w.Close()

	assert.Eventually(t, func() bool { return stops.Load() == 1 }, time.Second, 2*time.Millisecond)

	// Disarmed after firing: no repeat stops
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), stops.Load())
	assert.Equal(t, int32(0), kills.Load())
}

func TestWatchdogDeltasHoldOffStall(t *testing.T) {
	var stops atomic.Int32

	w := NewWatchdog(WatchdogTimings{
		Check:       5 * time.Millisecond,
		StallAfter:  40 * time.Millisecond,
		SoftTimeout: time.Hour,
		HardTimeout: time.Hour,
	}, func() { stops.Add(1) }, func() {})
	defer w.Close()

	// Keep feeding deltas faster than the stall threshold
	for i := 0; i < 10; i++ {
		w.Observe()
		time.Sleep(10 * time.Millisecond)
	}

	assert.Equal(t, int32(0), stops.Load())
}

func TestWatchdogSoftTimeout(t *testing.T) {
	var stops atomic.Int32

	w := NewWatchdog(WatchdogTimings{
		Check:       5 * time.Millisecond,
		StallAfter:  time.Hour,
		SoftTimeout: 25 * time.Millisecond,
		HardTimeout: time.Hour,
	}, func() { stops.Add(1) }, func() {})
	defer w.Close()

	assert.Eventually(t, func() bool { return stops.Load() == 1 }, time.Second, 2*time.Millisecond)
}

func TestWatchdogHardTimeoutKills(t *testing.T) {
	var kills atomic.Int32

	// Stop does nothing, simulating a wedged network call the cooperative
	// path cannot take down.
	w := NewWatchdog(WatchdogTimings{
		Check:       5 * time.Millisecond,
		StallAfter:  time.Hour,
		SoftTimeout: time.Hour,
		HardTimeout: 25 * time.Millisecond,
	}, func() {}, func() { kills.Add(1) })
	defer w.Close()

	assert.Eventually(t, func() bool { return kills.Load() == 1 }, time.Second, 2*time.Millisecond)
}
