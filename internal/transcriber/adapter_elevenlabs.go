package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/language"
)

const elevenLabsURL = "https://api.elevenlabs.io/v1/speech-to-text"

// elevenLabsAdapter implements Client for the ElevenLabs Scribe API.
type elevenLabsAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newElevenLabsAdapter(apiKey, model string) *elevenLabsAdapter {
	return &elevenLabsAdapter{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: elevenLabsURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type elevenLabsResponse struct {
	Text string `json:"text"`
}

func (a *elevenLabsAdapter) Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(artifact.WAV); err != nil {
		return "", fmt.Errorf("write audio data: %w", err)
	}
	if err := writer.WriteField("model_id", a.model); err != nil {
		return "", fmt.Errorf("write model_id: %w", err)
	}
	if code := language.ISO2(languageHint); code != "" {
		if err := writer.WriteField("language_code", code); err != nil {
			return "", fmt.Errorf("write language_code: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", a.apiKey)

	start := time.Now()
	resp, err := a.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("elevenlabs-adapter: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("elevenlabs-adapter: API returned status %d: %s", resp.StatusCode, string(bodyBytes))
		return "", &statusError{status: resp.StatusCode, body: string(bodyBytes)}
	}

	var result elevenLabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	log.Printf("elevenlabs-adapter: transcribed %d WAV bytes in %v: %q", len(artifact.WAV), duration, result.Text)
	return result.Text, nil
}
