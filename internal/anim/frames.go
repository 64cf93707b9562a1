package anim

import (
	"sync"
	"time"
)

// Clock is the monotonic time source used for animation timing.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock (monotonic reading included).
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FrameSource schedules a callback before the next repaint. Each request
// fires exactly once.
type FrameSource interface {
	RequestFrame(fn func(now time.Time))
}

// ManualFrames is a FrameSource advanced explicitly by the host. Callbacks
// requested while a frame is running are deferred to the next Advance.
type ManualFrames struct {
	mu      sync.Mutex
	pending []func(time.Time)
}

// NewManualFrames creates an empty manual frame source.
func NewManualFrames() *ManualFrames {
	return &ManualFrames{}
}

// RequestFrame queues fn for the next Advance.
func (m *ManualFrames) RequestFrame(fn func(now time.Time)) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// Advance runs every callback queued before the call with the given frame
// time and returns how many ran.
func (m *ManualFrames) Advance(now time.Time) int {
	m.mu.Lock()
	batch := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, fn := range batch {
		fn(now)
	}
	return len(batch)
}

// Pending returns the number of queued callbacks.
func (m *ManualFrames) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// TickerFrames fires queued callbacks from a single goroutine at a fixed
// rate. The goroutine starts on the first request and exits on Stop.
type TickerFrames struct {
	mu       sync.Mutex
	interval time.Duration
	pending  []func(time.Time)
	running  bool
	stop     chan struct{}
	exited   chan struct{} // closed when the current loop returns
	clock    Clock
}

// NewTickerFrames creates a ticker-driven frame source. fps <= 0 defaults to 60.
func NewTickerFrames(fps int, clock Clock) *TickerFrames {
	if fps <= 0 {
		fps = 60
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TickerFrames{
		interval: time.Second / time.Duration(fps),
		stop:     make(chan struct{}),
		clock:    clock,
	}
}

// RequestFrame queues fn for the next tick.
func (f *TickerFrames) RequestFrame(fn func(now time.Time)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, fn)
	if !f.running {
		f.running = true
		f.exited = make(chan struct{})
		go f.loop(f.stop, f.exited)
	}
}

// Stop terminates the ticker goroutine. Queued callbacks are dropped.
func (f *TickerFrames) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		close(f.stop)
		f.running = false
		f.stop = make(chan struct{})
	}
	f.pending = nil
}

// loop owns stop and exited for its whole life. Stop swaps in a fresh stop
// channel, so the loop must never read f.stop itself.
func (f *TickerFrames) loop(stop <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			f.mu.Lock()
			batch := f.pending
			f.pending = nil
			f.mu.Unlock()
			now := f.clock.Now()
			for _, fn := range batch {
				fn(now)
			}
		}
	}
}
