package anim

import (
	"sort"
	"sync"
	"time"
)

// Animation describes one named, time-driven progress animation.
type Animation struct {
	Duration   time.Duration
	Easing     Easing
	OnProgress func(progress float64)
	OnComplete func()
}

type entry struct {
	id    uint64
	anim  Animation
	start time.Time
}

// Scheduler drives registered animations from a FrameSource until they reach
// progress 1 or are cancelled. Registering an existing name replaces it.
type Scheduler struct {
	mu      sync.Mutex
	frames  FrameSource
	clock   Clock
	entries map[string]*entry
	seq     uint64
}

// NewScheduler creates a scheduler. A nil clock uses SystemClock.
func NewScheduler(frames FrameSource, clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		frames:  frames,
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Register starts (or restarts) the animation called name. A non-positive
// duration completes immediately with progress 1.
func (s *Scheduler) Register(name string, a Animation) {
	if a.Duration <= 0 || s.frames == nil {
		s.mu.Lock()
		delete(s.entries, name)
		s.mu.Unlock()
		if a.OnProgress != nil {
			a.OnProgress(1)
		}
		if a.OnComplete != nil {
			a.OnComplete()
		}
		return
	}

	s.mu.Lock()
	s.seq++
	id := s.seq
	s.entries[name] = &entry{id: id, anim: a, start: s.clock.Now()}
	s.mu.Unlock()

	s.frames.RequestFrame(func(now time.Time) { s.tick(name, id, now) })
}

func (s *Scheduler) tick(name string, id uint64, now time.Time) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok || e.id != id {
		// Cancelled or replaced since this frame was requested.
		s.mu.Unlock()
		return
	}
	t := float64(now.Sub(e.start)) / float64(e.anim.Duration)
	if t < 0 {
		t = 0
	}
	done := t >= 1
	if done {
		t = 1
		delete(s.entries, name)
	}
	a := e.anim
	s.mu.Unlock()

	if a.OnProgress != nil {
		a.OnProgress(a.Easing.Apply(t))
	}
	if done {
		if a.OnComplete != nil {
			a.OnComplete()
		}
		return
	}
	s.frames.RequestFrame(func(now time.Time) { s.tick(name, id, now) })
}

// Cancel removes the named animation. Cancelling an unknown or finished
// animation is a no-op; the return value reports whether one was removed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	delete(s.entries, name)
	return ok
}

// Clear removes every registered animation without firing completions.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// Active reports whether name is still running.
func (s *Scheduler) Active(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[name]
	return ok
}

// Names returns the running animation names, sorted.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of running animations.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
