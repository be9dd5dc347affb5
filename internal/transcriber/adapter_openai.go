package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/language"
)

// openAIAdapter implements Client for the OpenAI Whisper API.
type openAIAdapter struct {
	client *openai.Client
	model  string
	label  string
}

func newOpenAIAdapter(apiKey, model string) *openAIAdapter {
	return &openAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
		label:  "openai-adapter",
	}
}

// newGroqAdapter reuses the OpenAI-compatible client against Groq's endpoint.
func newGroqAdapter(apiKey, model string) *openAIAdapter {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = "https://api.groq.com/openai/v1"
	return &openAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		label:  "groq-adapter",
	}
}

func (a *openAIAdapter) Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error) {
	req := openai.AudioRequest{
		Model:    a.model,
		Reader:   bytes.NewReader(artifact.WAV),
		FilePath: "audio.wav",
		Language: language.ISO2(languageHint),
	}

	start := time.Now()
	resp, err := a.client.CreateTranscription(ctx, req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("%s: API call failed after %v: %v", a.label, duration, err)
		return "", fmt.Errorf("transcription request: %w", err)
	}

	log.Printf("%s: transcribed %d WAV bytes in %v: %q", a.label, len(artifact.WAV), duration, resp.Text)
	return resp.Text, nil
}
