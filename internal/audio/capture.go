package audio

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
	ErrNoData           = errors.New("no audio captured")
)

// Artifact is one finalized recording: a WAV byte buffer plus its capture
// metadata. It belongs to the session that produced it and is never reused.
type Artifact struct {
	WAV        []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

type Config struct {
	SampleRate int
	Channels   int
	Format     string
	BufferSize int
	Device     string

	// StopTimeout bounds the join of the capture worker on Stop.
	StopTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		Channels:    1,
		Format:      "s16le",
		BufferSize:  4096,
		Device:      "",
		StopTimeout: 2 * time.Second,
	}
}

// Capture owns the microphone lifecycle: one pw-record worker per
// Start/Stop pair, frames accumulated off the caller's goroutine, finalized
// into an Artifact on Stop.
type Capture struct {
	config    Config
	recording atomic.Bool

	mu     sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}

	bufMu     sync.Mutex
	buf       []byte
	streamErr error

	// newCommand builds the capture process; replaced in tests.
	newCommand func(ctx context.Context) *exec.Cmd
}

func New(config Config) *Capture {
	c := &Capture{config: config}
	c.newCommand = func(ctx context.Context) *exec.Cmd {
		return exec.CommandContext(ctx, "pw-record", c.pwRecordArgs()...)
	}
	return c
}

func NewDefault() *Capture { return New(DefaultConfig()) }

func (c *Capture) IsRecording() bool { return c.recording.Load() }

// Open probes device readiness so first-use latency lands at startup rather
// than on the first hotkey press. Errors are for logging only; Start retries
// the real thing and surfaces failures then.
func (c *Capture) Open(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := exec.CommandContext(probeCtx, "pw-cli", "info").Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}

// Start begins appending PCM frames on an internal worker until Stop.
func (c *Capture) Start(ctx context.Context) error {
	if !c.recording.CompareAndSwap(false, true) {
		return ErrAlreadyRecording
	}

	if err := c.validateConfig(); err != nil {
		c.recording.Store(false)
		return err
	}

	captureCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	c.bufMu.Lock()
	c.buf = nil
	c.streamErr = nil
	c.bufMu.Unlock()

	go c.captureLoop(captureCtx, done)
	return nil
}

// Stop halts the worker deterministically and finalizes buffered frames into
// an Artifact. Mid-stream device errors surface here; zero captured frames
// yield ErrNoData.
func (c *Capture) Stop() (*Artifact, error) {
	if !c.recording.CompareAndSwap(true, false) {
		return nil, ErrNotRecording
	}

	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	// Bounded join: a wedged worker must not hang the orchestrator.
	if done != nil {
		select {
		case <-done:
		case <-time.After(c.config.StopTimeout):
			log.Printf("audio: capture worker did not stop within %v", c.config.StopTimeout)
			return nil, fmt.Errorf("capture worker stuck after %v", c.config.StopTimeout)
		}
	}

	c.bufMu.Lock()
	pcm := c.buf
	streamErr := c.streamErr
	c.buf = nil
	c.streamErr = nil
	c.bufMu.Unlock()

	if streamErr != nil && len(pcm) == 0 {
		return nil, streamErr
	}
	if len(pcm) == 0 {
		return nil, ErrNoData
	}
	if streamErr != nil {
		log.Printf("audio: capture ended with error after %d bytes: %v", len(pcm), streamErr)
	}

	bytesPerSecond := c.config.SampleRate * c.config.Channels * bitsPerSample / 8
	artifact := &Artifact{
		WAV:        EncodeWAV(pcm, c.config.SampleRate, c.config.Channels),
		SampleRate: c.config.SampleRate,
		Channels:   c.config.Channels,
		Duration:   time.Duration(len(pcm)) * time.Second / time.Duration(bytesPerSecond),
	}
	log.Printf("audio: finalized %d PCM bytes (%v)", len(pcm), artifact.Duration.Round(time.Millisecond))
	return artifact, nil
}

// Close releases the device. Safe to call repeatedly and mid-failure.
func (c *Capture) Close() {
	if c.recording.Load() {
		if _, err := c.Stop(); err != nil && !errors.Is(err, ErrNotRecording) {
			log.Printf("audio: close: %v", err)
		}
	}
}

func (c *Capture) captureLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	cmd := c.newCommand(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		c.setStreamErr(fmt.Errorf("create stdout pipe: %w", err))
		return
	}
	if err := cmd.Start(); err != nil {
		c.setStreamErr(fmt.Errorf("start capture process: %w", err))
		return
	}
	defer cmd.Wait()

	buffer := make([]byte, c.config.BufferSize)
	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			c.bufMu.Lock()
			c.buf = append(c.buf, buffer[:n]...)
			c.bufMu.Unlock()
		}
		if readErr != nil {
			// EOF after cancellation is the normal shutdown path; anything
			// before that is a device failure surfaced on Stop.
			if ctx.Err() == nil {
				c.setStreamErr(fmt.Errorf("read audio: %w", readErr))
			}
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Capture) setStreamErr(err error) {
	log.Printf("audio: %v", err)
	c.bufMu.Lock()
	if c.streamErr == nil {
		c.streamErr = err
	}
	c.bufMu.Unlock()
}

func (c *Capture) pwRecordArgs() []string {
	args := []string{
		"--format", c.config.Format,
		"--rate", strconv.Itoa(c.config.SampleRate),
		"--channels", strconv.Itoa(c.config.Channels),
		"-", // stream to stdout
	}
	if c.config.Device != "" {
		args = append(args, "--target", c.config.Device)
	}
	return args
}

func (c *Capture) validateConfig() error {
	if c.config.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.config.SampleRate)
	}
	if c.config.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", c.config.Channels)
	}
	if c.config.BufferSize <= 0 {
		return fmt.Errorf("invalid BufferSize: %d", c.config.BufferSize)
	}
	if c.config.Format == "" {
		return fmt.Errorf("invalid Format: empty")
	}
	if c.config.StopTimeout <= 0 {
		return fmt.Errorf("invalid StopTimeout: %v", c.config.StopTimeout)
	}
	return nil
}
