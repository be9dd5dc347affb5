package transcriber

import (
	"context"
	"fmt"
	"strings"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/provider"
)

// Client is the provider-agnostic transcription capability: blocking,
// cancellable through the context, no built-in retry. A failed call is a
// terminal outcome for its session.
type Client interface {
	Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error)
}

type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// New builds the client for the configured provider. A missing API key is
// reported here, before any audio is recorded against it.
func New(cfg Config) (Client, error) {
	info, ok := provider.Get(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %q (supported: %s)",
			cfg.Provider, strings.Join(provider.List(), ", "))
	}

	apiKey := provider.ResolveAPIKey(cfg.Provider, cfg.APIKey)
	if apiKey == "" {
		return nil, &Error{
			Class:    ClassMissingAPIKey,
			Provider: cfg.Provider,
			Err:      fmt.Errorf("no API key in config or %s", info.EnvVar),
		}
	}

	model := cfg.Model
	if model == "" {
		model = info.DefaultModel
	}

	var inner Client
	switch cfg.Provider {
	case provider.Gemini:
		inner = newGeminiAdapter(apiKey, model)
	case provider.ElevenLabs:
		inner = newElevenLabsAdapter(apiKey, model)
	case provider.OpenAI:
		inner = newOpenAIAdapter(apiKey, model)
	case provider.Groq:
		inner = newGroqAdapter(apiKey, model)
	default:
		return nil, fmt.Errorf("unsupported provider: %q", cfg.Provider)
	}

	return &classifying{provider: cfg.Provider, inner: inner}, nil
}

// Unavailable returns a Client whose every call fails with the classified
// construction error. It lets the daemon keep running when the transcriber
// cannot be built yet, surfacing the problem per session instead.
func Unavailable(providerName string, err error) Client {
	return &unavailable{provider: providerName, err: err}
}

type unavailable struct {
	provider string
	err      error
}

func (u *unavailable) Transcribe(context.Context, *audio.Artifact, string) (string, error) {
	return "", Classify(u.provider, u.err)
}

// classifying normalizes adapter outcomes: errors get a class, blank text
// becomes ClassEmptyResult, surrounding whitespace is trimmed.
type classifying struct {
	provider string
	inner    Client
}

func (c *classifying) Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error) {
	text, err := c.inner.Transcribe(ctx, artifact, languageHint)
	if err != nil {
		return "", Classify(c.provider, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &Error{Class: ClassEmptyResult, Provider: c.provider}
	}
	return text, nil
}
