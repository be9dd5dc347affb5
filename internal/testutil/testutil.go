package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/config"
	"github.com/voxkey/voxkey/internal/session"
)

// TestConfig returns a valid configuration for testing.
func TestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Transcription.Provider = "gemini"
	cfg.Providers = map[string]config.ProviderConfig{
		"gemini": {APIKey: "test-api-key"},
	}
	cfg.Notifications.Type = "log"
	return cfg
}

// TestArtifact returns a small artifact with a valid-looking WAV payload.
func TestArtifact() *audio.Artifact {
	pcm := make([]byte, 640)
	for i := range pcm {
		pcm[i] = byte(i % 251)
	}
	return &audio.Artifact{
		WAV:        audio.EncodeWAV(pcm, 16000, 1),
		SampleRate: 16000,
		Channels:   1,
		Duration:   20 * time.Millisecond,
	}
}

// MockRecorder implements session.Recorder.
type MockRecorder struct {
	mu       sync.Mutex
	StartErr error
	StopErr  error
	Artifact *audio.Artifact
	Starts   int
	Stops    int
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{Artifact: TestArtifact()}
}

func (m *MockRecorder) Start(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts++
	return m.StartErr
}

func (m *MockRecorder) Stop() (*audio.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops++
	if m.StopErr != nil {
		return nil, m.StopErr
	}
	return m.Artifact, nil
}

// MockClient implements transcriber.Client.
type MockClient struct {
	TranscribeFunc func(ctx context.Context, artifact *audio.Artifact, hint string) (string, error)
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Transcribe(ctx context.Context, artifact *audio.Artifact, hint string) (string, error) {
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, artifact, hint)
	}
	return "mock transcription", nil
}

// MockInserter implements insert.Inserter.
type MockInserter struct {
	mu        sync.Mutex
	InsertErr error
	Texts     []string
}

func NewMockInserter() *MockInserter {
	return &MockInserter{}
}

func (m *MockInserter) Insert(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.Texts = append(m.Texts, text)
	return nil
}

// Inserted returns a copy of the texts inserted so far.
func (m *MockInserter) Inserted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Texts...)
}

// CollectingObserver buffers status events for assertions.
type CollectingObserver struct {
	Events chan session.StatusEvent
}

func NewCollectingObserver() *CollectingObserver {
	return &CollectingObserver{Events: make(chan session.StatusEvent, 64)}
}

func (o *CollectingObserver) Notify(ev session.StatusEvent) {
	o.Events <- ev
}

// WaitForCondition waits for a condition to be true or times out.
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Condition not met within %v", timeout)
}
