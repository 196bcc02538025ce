package history

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSaverCoalesces(t *testing.T) {
	saver := NewSaver(30 * time.Millisecond)
	defer saver.Stop()

	var got atomic.Int64
	saver.Schedule(func() { got.Store(1) })
	saver.Schedule(func() { got.Store(2) })
	saver.Schedule(func() { got.Store(3) })

	time.Sleep(100 * time.Millisecond)
	if got.Load() != 3 {
		t.Errorf("last scheduled save should win, got %d", got.Load())
	}
}

func TestSaverFlushRunsImmediately(t *testing.T) {
	saver := NewSaver(time.Hour)
	defer saver.Stop()

	var runs atomic.Int64
	saver.Schedule(func() { runs.Add(1) })
	saver.Flush()
	if runs.Load() != 1 {
		t.Fatalf("Flush should run the pending save, runs = %d", runs.Load())
	}

	// A flushed save must not fire again later.
	saver.Flush()
	time.Sleep(20 * time.Millisecond)
	if runs.Load() != 1 {
		t.Errorf("save ran %d times, want 1", runs.Load())
	}
}

func TestSaverStopDiscardsPending(t *testing.T) {
	saver := NewSaver(20 * time.Millisecond)

	var runs atomic.Int64
	saver.Schedule(func() { runs.Add(1) })
	saver.Stop()

	time.Sleep(60 * time.Millisecond)
	if runs.Load() != 0 {
		t.Errorf("stopped save still ran %d times", runs.Load())
	}
}

func TestSaverFlushWithoutPending(t *testing.T) {
	saver := NewSaver(time.Second)
	saver.Flush() // must not panic or block
}
