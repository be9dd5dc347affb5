package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/insert"
	"github.com/voxkey/voxkey/internal/transcriber"
)

// Recorder is the capture surface the orchestrator drives. *audio.Capture
// satisfies it.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() (*audio.Artifact, error)
}

type eventKind int

const (
	evEngage eventKind = iota
	evRelease
	evCancel
	evTranscriptDone
)

type event struct {
	kind      eventKind
	sessionID uint64
	text      string
	err       error
}

// Config tunes orchestrator behavior.
type Config struct {
	// TranscribeTimeout bounds a single transcription round trip.
	// Zero disables the watchdog.
	TranscribeTimeout time.Duration
	// LanguageHint is forwarded to the transcription client; empty means
	// auto-detect.
	LanguageHint string
}

func DefaultConfig() Config {
	return Config{TranscribeTimeout: 60 * time.Second}
}

// Orchestrator owns the session state machine. All transitions happen on the
// single goroutine inside Run, fed by one event channel, so observers see
// every session's events in transition order and at most one session is ever
// active.
type Orchestrator struct {
	recorder    Recorder
	client      transcriber.Client
	inserter    insert.Inserter
	observers   []Observer
	config      Config
	clientMu    sync.RWMutex
	events      chan event
	running     atomic.Bool
	nextSession uint64

	state     State
	sessionID uint64
	cancelTx  context.CancelFunc
}

func NewOrchestrator(recorder Recorder, client transcriber.Client, inserter insert.Inserter, config Config, observers ...Observer) *Orchestrator {
	return &Orchestrator{
		recorder:  recorder,
		client:    client,
		inserter:  inserter,
		observers: observers,
		config:    config,
		events:    make(chan event, 32),
		state:     StateIdle,
	}
}

// Engage starts a new session if the orchestrator is idle. Engaging while a
// session is active is ignored without any status event.
func (o *Orchestrator) Engage() { o.enqueue(event{kind: evEngage}) }

// Release stops the active recording and hands the audio to transcription.
func (o *Orchestrator) Release() { o.enqueue(event{kind: evRelease}) }

// Cancel aborts whatever session is in flight and returns to idle.
func (o *Orchestrator) Cancel() { o.enqueue(event{kind: evCancel}) }

// State reports the current phase. Diagnostic only; it can be stale by the
// time the caller looks at it.
func (o *Orchestrator) State() State {
	o.clientMu.RLock()
	defer o.clientMu.RUnlock()
	return o.state
}

// UpdateClient swaps the transcription client, used on config hot-reload.
// In-flight transcriptions finish on the old client.
func (o *Orchestrator) UpdateClient(client transcriber.Client) {
	o.clientMu.Lock()
	o.client = client
	o.clientMu.Unlock()
}

// UpdateLanguageHint swaps the language hint on config hot-reload.
func (o *Orchestrator) UpdateLanguageHint(hint string) {
	o.clientMu.Lock()
	o.config.LanguageHint = hint
	o.clientMu.Unlock()
}

// UpdateInserter swaps the insertion strategy on config hot-reload.
func (o *Orchestrator) UpdateInserter(inserter insert.Inserter) {
	o.clientMu.Lock()
	o.inserter = inserter
	o.clientMu.Unlock()
}

func (o *Orchestrator) enqueue(ev event) {
	select {
	case o.events <- ev:
	default:
		log.Printf("session: event queue full, dropping %d", ev.kind)
	}
}

// Run consumes events until ctx is cancelled. It must be called exactly once.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return errors.New("orchestrator already running")
	}

	for {
		select {
		case <-ctx.Done():
			o.abort("shutting down")
			return ctx.Err()
		case ev := <-o.events:
			o.handle(ctx, ev)
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evEngage:
		o.handleEngage(ctx)
	case evRelease:
		o.handleRelease(ctx)
	case evCancel:
		o.handleCancel()
	case evTranscriptDone:
		o.handleTranscriptDone(ctx, ev)
	}
}

func (o *Orchestrator) handleEngage(ctx context.Context) {
	if o.state != StateIdle {
		log.Printf("session: engage ignored, session %d is %s", o.sessionID, o.state)
		return
	}

	o.nextSession++
	o.sessionID = o.nextSession

	if err := o.recorder.Start(ctx); err != nil {
		log.Printf("session %d: recorder start failed: %v", o.sessionID, err)
		o.fail("no_audio")
		return
	}
	o.transition(StateRecording, "")
}

func (o *Orchestrator) handleRelease(ctx context.Context) {
	if o.state != StateRecording {
		return
	}

	artifact, err := o.recorder.Stop()
	if err != nil {
		if !errors.Is(err, audio.ErrNoData) {
			log.Printf("session %d: recorder stop failed: %v", o.sessionID, err)
		}
		o.fail("no_audio")
		return
	}

	o.transition(StateTranscribing, "")
	o.dispatchTranscription(ctx, o.sessionID, artifact)
}

func (o *Orchestrator) handleCancel() {
	if o.state == StateIdle {
		return
	}
	o.abort("cancelled")
	o.transition(StateIdle, "")
}

func (o *Orchestrator) handleTranscriptDone(ctx context.Context, ev event) {
	// Completions from cancelled or superseded sessions are dropped.
	if o.state != StateTranscribing || ev.sessionID != o.sessionID {
		log.Printf("session: dropping stale transcript for session %d", ev.sessionID)
		return
	}
	o.cancelTx = nil

	if ev.err != nil {
		o.fail(errCode(ev.err))
		return
	}

	o.clientMu.RLock()
	inserter := o.inserter
	o.clientMu.RUnlock()

	o.transition(StateInserting, "")
	if err := inserter.Insert(ctx, ev.text); err != nil {
		log.Printf("session %d: insert failed: %v", o.sessionID, err)
		o.fail(errCode(err))
		return
	}
	o.transition(StateIdle, "")
}

// dispatchTranscription runs the provider round trip off the loop goroutine
// and feeds the result back through the event channel, keeping a single
// consumption point for all transitions.
func (o *Orchestrator) dispatchTranscription(ctx context.Context, sessionID uint64, artifact *audio.Artifact) {
	o.clientMu.RLock()
	client := o.client
	hint := o.config.LanguageHint
	o.clientMu.RUnlock()

	txCtx := ctx
	var cancel context.CancelFunc
	if o.config.TranscribeTimeout > 0 {
		txCtx, cancel = context.WithTimeout(ctx, o.config.TranscribeTimeout)
	} else {
		txCtx, cancel = context.WithCancel(ctx)
	}
	o.cancelTx = cancel

	go func() {
		defer cancel()
		text, err := client.Transcribe(txCtx, artifact, hint)
		select {
		case o.events <- event{kind: evTranscriptDone, sessionID: sessionID, text: text, err: err}:
		case <-ctx.Done():
		}
	}()
}

// abort tears down whatever the current session holds without emitting a
// status event; callers decide what to emit next.
func (o *Orchestrator) abort(reason string) {
	switch o.state {
	case StateRecording:
		if _, err := o.recorder.Stop(); err != nil && !errors.Is(err, audio.ErrNoData) {
			log.Printf("session %d: recorder stop during %s: %v", o.sessionID, reason, err)
		}
	case StateTranscribing:
		if o.cancelTx != nil {
			o.cancelTx()
			o.cancelTx = nil
		}
	}
	if o.state != StateIdle {
		log.Printf("session %d: %s while %s", o.sessionID, reason, o.state)
	}
	o.setState(StateIdle)
}

// fail emits a failed event with the given code, then returns to idle.
// Failed is transient: the next engage starts a fresh session.
func (o *Orchestrator) fail(code string) {
	o.transition(StateFailed, code)
	o.transition(StateIdle, "")
}

func (o *Orchestrator) setState(s State) {
	o.clientMu.Lock()
	o.state = s
	o.clientMu.Unlock()
}

func (o *Orchestrator) transition(s State, errCode string) {
	o.setState(s)
	ev := StatusEvent{SessionID: o.sessionID, State: s, ErrCode: errCode, At: time.Now()}
	for _, obs := range o.observers {
		obs.Notify(ev)
	}
}

// errCode renders a classified error as the stable code observers consume.
func errCode(err error) string {
	var txErr *transcriber.Error
	if errors.As(err, &txErr) {
		return txErr.Code()
	}
	var insErr *insert.Error
	if errors.As(err, &insErr) {
		return insErr.Code()
	}
	return string(transcriber.ClassOther)
}
