package history

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultSaveDelay is how long the Saver waits after the last schedule call
// before persisting.
const DefaultSaveDelay = time.Second

// Saver debounces session writes. Schedule replaces any pending save so the
// write that eventually runs always carries the latest snapshot. Flush runs
// the pending save immediately; Stop discards it.
type Saver struct {
	delay   time.Duration
	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// NewSaver creates a Saver with the given debounce delay. A non-positive
// delay falls back to DefaultSaveDelay.
func NewSaver(delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{delay: delay}
}

// Schedule registers a save to run after the debounce delay. A save already
// pending is replaced, never run twice.
func (s *Saver) Schedule(save func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending = save
	s.timer = time.AfterFunc(s.delay, s.fire)
	slog.Debug("Saver.Schedule: save scheduled", "delay", s.delay)
}

// fire runs the pending save when the timer expires.
func (s *Saver) fire() {
	s.mu.Lock()
	save := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if save != nil {
		save()
	}
}

// Flush cancels the timer and runs the pending save synchronously. No-op when
// nothing is pending.
func (s *Saver) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	save := s.pending
	s.pending = nil
	s.mu.Unlock()

	if save != nil {
		slog.Debug("Saver.Flush: running pending save")
		save()
	}
}

// Stop cancels the timer and discards the pending save.
func (s *Saver) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}
