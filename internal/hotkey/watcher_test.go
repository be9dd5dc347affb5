package hotkey

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeSource feeds scripted key events to the watcher.
type fakeSource struct {
	ch chan KeyEvent
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan KeyEvent, 64)}
}

func (s *fakeSource) Open(ctx context.Context) (<-chan KeyEvent, error) {
	return s.ch, nil
}

func (s *fakeSource) press(key string)   { s.ch <- KeyEvent{Key: key, Down: true} }
func (s *fakeSource) release(key string) { s.ch <- KeyEvent{Key: key, Down: false} }
func (s *fakeSource) repeat(key string)  { s.ch <- KeyEvent{Key: key, Down: true, Repeat: true} }

func startWatcher(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Watch(ctx); err != nil {
			t.Errorf("Watch() returned error: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func expectEvent(t *testing.T, w *Watcher, kind EventKind) {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed unexpectedly")
		}
		if ev.Kind != kind {
			t.Fatalf("got event %v, want %v", ev.Kind, kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %v", kind)
	}
}

func expectNoEvent(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatcherEngageRelease(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+alt+space"))
	startWatcher(t, w)

	src.press("ctrl")
	src.press("alt")
	expectNoEvent(t, w)

	src.press("space")
	expectEvent(t, w, ComboEngaged)

	src.release("space")
	expectEvent(t, w, ComboReleased)
}

func TestWatcherEngagedOncePerHold(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	src.press("ctrl")
	src.press("space")
	expectEvent(t, w, ComboEngaged)

	// OS auto-repeat and redundant downs while held must not re-engage.
	src.repeat("space")
	src.repeat("space")
	src.press("space")
	src.press("ctrl")
	expectNoEvent(t, w)

	src.release("ctrl")
	expectEvent(t, w, ComboReleased)

	// Release of the remaining key must not emit a second release.
	src.release("space")
	expectNoEvent(t, w)
}

func TestWatcherLeftRightModifiersNormalize(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	// Physical right-ctrl satisfies a "ctrl" spec.
	src.press("ctrl_r")
	src.press("space")
	expectEvent(t, w, ComboEngaged)

	src.release("ctrl_r")
	expectEvent(t, w, ComboReleased)
}

func TestWatcherSupersetStillEngages(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	src.press("shift")
	src.press("ctrl")
	src.press("space")
	expectEvent(t, w, ComboEngaged)

	// Dropping the extra key keeps the combo engaged.
	src.release("shift")
	expectNoEvent(t, w)

	src.release("space")
	expectEvent(t, w, ComboReleased)
}

func TestWatcherUpdateSpecHotSwap(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	w.UpdateSpec(MustParseSpec("alt+z"))

	// Old combo no longer fires.
	src.press("ctrl")
	src.press("space")
	expectNoEvent(t, w)
	src.release("ctrl")
	src.release("space")

	// New combo fires without restarting the watcher.
	src.press("alt")
	src.press("z")
	expectEvent(t, w, ComboEngaged)
	src.release("z")
	expectEvent(t, w, ComboReleased)
}

func TestWatcherSecondWatchRejected(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	// Wait until the first Watch has taken ownership.
	deadline := time.Now().Add(2 * time.Second)
	for !w.started.Load() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := w.Watch(context.Background()); err == nil {
		t.Error("second Watch() should be rejected")
	}
}

// brokenSource refuses to open, like an evdev source without input access.
type brokenSource struct{}

func (brokenSource) Open(ctx context.Context) (<-chan KeyEvent, error) {
	return nil, errors.New("no readable input devices")
}

func TestWatcherOpenFailureClosesEvents(t *testing.T) {
	w := NewWatcher(brokenSource{}, MustParseSpec("ctrl+space"))

	if err := w.Watch(context.Background()); err == nil {
		t.Fatal("Watch() should report the open failure")
	}

	// Consumers ranging over Events must observe the close instead of
	// blocking on a watcher that never ran.
	select {
	case _, ok := <-w.Events():
		if ok {
			t.Fatal("got an event from a watcher that failed to open")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel left open after Watch failed")
	}
}

func TestWatcherEngageReleasePairsUnderChatter(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src, MustParseSpec("ctrl+space"))
	startWatcher(t, w)

	for i := 0; i < 5; i++ {
		src.press("ctrl")
		src.press("space")
		expectEvent(t, w, ComboEngaged)
		src.repeat("space")
		src.release("space")
		expectEvent(t, w, ComboReleased)
		src.release("ctrl")
		expectNoEvent(t, w)
	}
}
