package notify

import (
	"strings"

	"github.com/voxkey/voxkey/internal/session"
)

// Observer bridges session status events to a Notifier. It implements
// session.Observer.
type Observer struct {
	notifier Notifier
}

func NewObserver(notifier Notifier) *Observer {
	return &Observer{notifier: notifier}
}

func (o *Observer) Notify(ev session.StatusEvent) {
	switch ev.State {
	case session.StateRecording:
		o.notifier.Notify("Voxkey", "Recording...")
	case session.StateTranscribing:
		o.notifier.Notify("Voxkey", "Transcribing...")
	case session.StateFailed:
		o.notifier.Error(describeFailure(ev.ErrCode))
	}
	// Inserting and the return to idle are too quick to be worth a toast.
}

// describeFailure turns a status code into user-facing copy. Unknown codes
// pass through verbatim so new failure classes still surface something.
func describeFailure(code string) string {
	class, detail, _ := strings.Cut(code, ":")
	switch class {
	case "no_audio":
		return "No audio was captured"
	case "missing_api_key":
		return "No API key configured for " + detail
	case "network_error":
		return "Could not reach " + detail
	case "api_error":
		return detail + " rejected the request"
	case "insert_error":
		return "Could not insert text (" + detail + ")"
	case "transcription_error":
		return "Transcription failed"
	default:
		return code
	}
}
