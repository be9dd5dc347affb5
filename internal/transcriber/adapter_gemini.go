package transcriber

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/voxkey/voxkey/internal/audio"
	"github.com/voxkey/voxkey/internal/language"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiAdapter transcribes through the Gemini generateContent API with the
// WAV attached inline. Gemini has no dedicated STT endpoint; a pinned
// transcription prompt at temperature 0 stands in for one.
type geminiAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newGeminiAdapter(apiKey, model string) *geminiAdapter {
	return &geminiAdapter{
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: geminiBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"system_instruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobPart `json:"inline_data,omitempty"`
}

type geminiBlobPart struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func transcriptionPrompt(languageHint string) (system, user string) {
	lang := language.FromCode(languageHint)
	if lang.Code == "" {
		system = "You are a professional transcriber. Transcribe the provided audio file accurately, " +
			"in the language spoken. Respond ONLY with the exact transcription. " +
			"Do not include explanations, notes, or additional text. Do not translate."
		user = "Please transcribe this audio file. Return ONLY the transcription without any explanations."
		return system, user
	}
	system = fmt.Sprintf("You are a professional %s language transcriber. "+
		"Your task is to transcribe the provided %s language audio file accurately. "+
		"Respond ONLY with the exact transcription in %s script. "+
		"Do not include any explanations, notes, or additional text. Do not translate the content.",
		lang.Name, lang.Name, lang.Name)
	user = fmt.Sprintf("Please transcribe this %s audio file. Return ONLY the transcription without any explanations.", lang.Name)
	return system, user
}

func (a *geminiAdapter) Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error) {
	system, user := transcriptionPrompt(languageHint)

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		GenerationConfig:  geminiGenerationConfig{Temperature: 0},
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: user},
				{InlineData: &geminiBlobPart{
					MimeType: "audio/wav",
					Data:     base64.StdEncoding.EncodeToString(artifact.WAV),
				}},
			},
		}},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.apiKey)

	start := time.Now()
	resp, err := a.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		log.Printf("gemini-adapter: API call failed after %v: %v", duration, err)
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Printf("gemini-adapter: API returned status %d: %s", resp.StatusCode, string(body))
		return "", &statusError{status: resp.StatusCode, body: string(body)}
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := sb.String()

	log.Printf("gemini-adapter: transcribed %d WAV bytes in %v: %q", len(artifact.WAV), duration, text)
	return text, nil
}
