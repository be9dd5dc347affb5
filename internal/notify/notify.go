package notify

import (
	"log"
	"os/exec"
)

type Notifier interface {
	Notify(title, message string)
	Error(msg string)
}

type Desktop struct{}

func (Desktop) Notify(title, message string) {
	cmd := exec.Command("notify-send", "-a", "Voxkey", title, message)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

func (Desktop) Error(msg string) {
	cmd := exec.Command("notify-send", "-a", "Voxkey", "-u", "critical", "Voxkey Error", msg)
	if err := cmd.Run(); err != nil {
		log.Printf("notify: failed to send error notification: %v", err)
	}
}

// Log writes notifications to the daemon log instead of the desktop.
type Log struct{}

func (Log) Notify(title, message string) {
	log.Printf("notify: %s: %s", title, message)
}

func (Log) Error(msg string) {
	log.Printf("notify: Voxkey Error: %s", msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) Notify(title, message string) {}
func (Nop) Error(msg string)             {}

// ForType picks an implementation by the configured notification type.
func ForType(kind string) Notifier {
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}
