package hotkey

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind identifies a combo edge.
type EventKind int

const (
	ComboEngaged EventKind = iota
	ComboReleased
)

func (k EventKind) String() string {
	switch k {
	case ComboEngaged:
		return "engaged"
	case ComboReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event is a debounced logical combo edge emitted by the watcher.
type Event struct {
	Kind EventKind
	At   time.Time
}

// KeyEvent is a raw physical key transition delivered by a Source.
// Repeat marks OS auto-repeat; the watcher ignores those.
type KeyEvent struct {
	Key    string
	Down   bool
	Repeat bool
}

// Source delivers raw key transitions. Open is called once, on the
// watcher's goroutine; the returned channel closes when the source fails or
// the context ends.
type Source interface {
	Open(ctx context.Context) (<-chan KeyEvent, error)
}

// Watcher turns a raw key-event stream into edge-triggered combo events
// against a hot-swappable Spec. The held-key set is owned exclusively by the
// Watch goroutine.
type Watcher struct {
	source  Source
	events  chan Event
	spec    atomic.Pointer[Spec]
	started atomic.Bool

	mu   sync.Mutex
	held map[string]struct{}

	engaged bool
}

func NewWatcher(source Source, spec Spec) *Watcher {
	w := &Watcher{
		source: source,
		events: make(chan Event, 16),
		held:   make(map[string]struct{}),
	}
	w.spec.Store(&spec)
	return w
}

// Events is the outbound combo-edge channel consumed by the orchestrator
// bridge. It closes when Watch returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// UpdateSpec atomically replaces the active combination. The new spec is
// visible to the next key event processed; the watch goroutine keeps running.
func (w *Watcher) UpdateSpec(spec Spec) {
	w.spec.Store(&spec)
	log.Printf("hotkey: combo updated to %s", spec.String())
}

// Watch opens the source and processes key events until ctx ends or the
// source closes. It is idempotent: a second call returns an error instead of
// starting a second listener. A source that cannot be opened is a fatal
// startup condition reported to the caller. The events channel closes on
// every return path, including open failure, so consumers ranging over
// Events never block on a dead watcher.
func (w *Watcher) Watch(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("hotkey watcher already running")
	}
	defer close(w.events)

	keyCh, err := w.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("open key source: %w", err)
	}
	log.Printf("hotkey: watching for %s", w.spec.Load().String())

	for {
		select {
		case ev, ok := <-keyCh:
			if !ok {
				log.Printf("hotkey: key source closed")
				return nil
			}
			w.handleKey(ctx, ev)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handleKey(ctx context.Context, ev KeyEvent) {
	if ev.Repeat {
		return
	}
	key := NormalizeKey(ev.Key)
	if key == "" {
		return
	}

	spec := *w.spec.Load()

	if ev.Down {
		w.mu.Lock()
		w.held[key] = struct{}{}
		matched := spec.matchedBy(w.held)
		w.mu.Unlock()
		if !w.engaged && matched {
			w.engaged = true
			w.emit(ctx, Event{Kind: ComboEngaged, At: time.Now()})
		}
		return
	}

	w.mu.Lock()
	delete(w.held, key)
	matched := spec.matchedBy(w.held)
	w.mu.Unlock()
	if w.engaged && !matched {
		w.engaged = false
		w.emit(ctx, Event{Kind: ComboReleased, At: time.Now()})
	}
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// Held returns a snapshot of the currently-depressed logical keys. Intended
// for diagnostics; the live set is only mutated on the watch goroutine.
func (w *Watcher) Held() []string {
	snapshot := make(Spec, len(w.held))
	w.mu.Lock()
	for k := range w.held {
		snapshot[k] = struct{}{}
	}
	w.mu.Unlock()
	return snapshot.Keys()
}
