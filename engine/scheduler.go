package engine

import (
	"sync"
	"time"
)

// Scheduler runs a frame callback repeatedly until the returned Task is
// cancelled. Implementations must never run two frames at once.
type Scheduler interface {
	Schedule(frame func()) Task
}

// Task is a cancellable handle to a scheduled frame loop.
type Task interface {
	// Cancel stops future frames. A frame already running is not
	// interrupted. Cancel does not wait and is safe to call more than once.
	Cancel()
}

// FrameClock drives frames from a ticker at a fixed rate. Ticks that arrive
// while a frame is still running are dropped, not queued.
type FrameClock struct {
	interval time.Duration
}

// NewFrameClock creates a clock ticking rate times per second.
func NewFrameClock(rate float64) *FrameClock {
	if rate <= 0 {
		rate = 60
	}
	return &FrameClock{interval: time.Duration(float64(time.Second) / rate)}
}

// Interval returns the time between ticks.
func (c *FrameClock) Interval() time.Duration {
	return c.interval
}

func (c *FrameClock) Schedule(frame func()) Task {
	t := &tickerTask{done: make(chan struct{})}
	ticker := time.NewTicker(c.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-t.done:
				return
			case <-ticker.C:
			}

			// Both channels may be ready; cancellation wins.
			select {
			case <-t.done:
				return
			default:
			}

			frame()
		}
	}()

	return t
}

type tickerTask struct {
	done chan struct{}
	once sync.Once
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() { close(t.done) })
}
