package insert

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Strategy selects how final text reaches the focused application.
type Strategy string

const (
	// StrategyClipboard does a clipboard round-trip: snapshot, set, paste
	// chord, restore.
	StrategyClipboard Strategy = "clipboard"
	// StrategyKeypress emits synthetic keystrokes; slower, leaves the
	// clipboard untouched.
	StrategyKeypress Strategy = "keypress"
)

func ValidStrategy(s Strategy) bool {
	return s == StrategyClipboard || s == StrategyKeypress
}

// Class is the coarse failure category surfaced to status observers.
type Class string

const (
	ClassClipboardUnavailable Class = "clipboard_unavailable"
	ClassSimulationFailed     Class = "simulation_failed"
)

// Error is a classified insertion failure.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code(), e.Err)
	}
	return e.Code()
}

// Code renders as "insert_error:<detail>" for observer consumption.
func (e *Error) Code() string {
	return "insert_error:" + string(e.Class)
}

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	Strategy         Strategy
	RestoreClipboard bool
	// GraceDelay is how long the pasted text gets to be consumed by the
	// focused app before the original clipboard contents are restored.
	GraceDelay       time.Duration
	ClipboardTimeout time.Duration
	TypeTimeout      time.Duration
}

func DefaultConfig() Config {
	return Config{
		Strategy:         StrategyClipboard,
		RestoreClipboard: true,
		GraceDelay:       200 * time.Millisecond,
		ClipboardTimeout: 3 * time.Second,
		TypeTimeout:      5 * time.Second,
	}
}

// Inserter delivers text into whatever application has input focus.
type Inserter interface {
	Insert(ctx context.Context, text string) error
}

// commandRunner abstracts the external tools so tests can script them.
type commandRunner interface {
	run(ctx context.Context, timeout time.Duration, stdin, name string, args ...string) (string, error)
	lookPath(name string) error
}

type execRunner struct{}

func (execRunner) run(ctx context.Context, timeout time.Duration, stdin, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return string(out), nil
}

func (execRunner) lookPath(name string) error {
	_, err := exec.LookPath(name)
	return err
}

type inserter struct {
	config Config
	runner commandRunner
}

func New(config Config) Inserter {
	return &inserter{config: config, runner: execRunner{}}
}

func NewDefault() Inserter { return New(DefaultConfig()) }

// Insert dispatches to the configured strategy. Callers serialize insertions;
// the clipboard snapshot-restore sequence is a critical section.
func (i *inserter) Insert(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("cannot insert empty text")
	}

	switch i.config.Strategy {
	case StrategyClipboard:
		return i.insertViaClipboard(ctx, text)
	case StrategyKeypress:
		return i.insertViaKeypress(ctx, text)
	default:
		return fmt.Errorf("unsupported insertion strategy: %q", i.config.Strategy)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// logRestoreFailure is split out so clipboard restore stays non-fatal but
// visible.
func logRestoreFailure(err error) {
	log.Printf("insert: failed to restore original clipboard: %v", err)
}
