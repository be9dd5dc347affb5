package session

import "time"

// State is the lifecycle phase of a dictation session.
type State string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateInserting    State = "inserting"
	StateFailed       State = "failed"
)

// StatusEvent is emitted on every state transition. ErrCode is only set when
// State is StateFailed and carries the classified failure code
// ("network_error:gemini", "no_audio", "insert_error:simulation_failed", ...).
type StatusEvent struct {
	SessionID uint64
	State     State
	ErrCode   string
	At        time.Time
}

// Observer receives status events in transition order. Notify is called from
// the orchestrator loop and must not block for long.
type Observer interface {
	Notify(ev StatusEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ev StatusEvent)

func (f ObserverFunc) Notify(ev StatusEvent) { f(ev) }
