package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/voxkey/voxkey/internal/audio"
)

func testArtifact() *audio.Artifact {
	return &audio.Artifact{
		WAV:        audio.EncodeWAV(make([]byte, 3200), 16000, 1),
		SampleRate: 16000,
		Channels:   1,
		Duration:   100 * time.Millisecond,
	}
}

type stubClient struct {
	text string
	err  error
}

func (s *stubClient) Transcribe(ctx context.Context, artifact *audio.Artifact, languageHint string) (string, error) {
	return s.text, s.err
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(Config{Provider: "does-not-exist", APIKey: "k"}); err == nil {
		t.Error("New() should reject unknown provider")
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := New(Config{Provider: "gemini"})
	if err == nil {
		t.Fatal("New() should fail without API key")
	}
	var classified *Error
	if !errors.As(err, &classified) {
		t.Fatalf("error %v is not a classified *Error", err)
	}
	if classified.Class != ClassMissingAPIKey || classified.Code() != "missing_api_key:gemini" {
		t.Errorf("error code = %s, want missing_api_key:gemini", classified.Code())
	}
}

func TestNewKeyFromEnvironment(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "env-key")

	if _, err := New(Config{Provider: "elevenlabs"}); err != nil {
		t.Errorf("New() with env key failed: %v", err)
	}
}

func TestClassifyingTrimsAndRejectsBlank(t *testing.T) {
	c := &classifying{provider: "gemini", inner: &stubClient{text: "  hello world \n"}}
	text, err := c.Transcribe(context.Background(), testArtifact(), "")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}

	c = &classifying{provider: "gemini", inner: &stubClient{text: "   \n\t "}}
	_, err = c.Transcribe(context.Background(), testArtifact(), "")
	var classified *Error
	if !errors.As(err, &classified) || classified.Class != ClassEmptyResult {
		t.Errorf("blank text gave %v, want empty_result class", err)
	}
}

func TestGeminiAdapterTranscribe(t *testing.T) {
	var gotPath, gotKey string
	var gotReq geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{{Content: geminiContent{Parts: []geminiPart{{Text: "សួស្តី"}}}}},
		})
	}))
	defer srv.Close()

	a := newGeminiAdapter("test-key", "gemini-2.0-flash")
	a.baseURL = srv.URL

	text, err := a.Transcribe(context.Background(), testArtifact(), "khm")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "សួស្តី" {
		t.Errorf("text = %q", text)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if gotReq.GenerationConfig.Temperature != 0 {
		t.Errorf("temperature = %v, want 0", gotReq.GenerationConfig.Temperature)
	}
	if gotReq.SystemInstruction == nil || len(gotReq.SystemInstruction.Parts) == 0 {
		t.Fatal("missing system instruction")
	}
	// The language hint shapes the prompt.
	if got := gotReq.SystemInstruction.Parts[0].Text; !strings.Contains(got, "Khmer") {
		t.Errorf("system prompt %q does not name the hinted language", got)
	}
	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 2 {
		t.Fatalf("unexpected contents shape: %+v", gotReq.Contents)
	}
	if blob := gotReq.Contents[0].Parts[1].InlineData; blob == nil || blob.MimeType != "audio/wav" || blob.Data == "" {
		t.Error("missing inline WAV attachment")
	}
}

func TestGeminiAdapterServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := newGeminiAdapter("test-key", "gemini-2.0-flash")
	a.baseURL = srv.URL

	_, err := a.Transcribe(context.Background(), testArtifact(), "")
	var stErr *statusError
	if !errors.As(err, &stErr) || stErr.status != http.StatusTooManyRequests {
		t.Errorf("error = %v, want statusError 429", err)
	}
}

func TestElevenLabsAdapterTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("xi-api-key"); got != "el-key" {
			t.Errorf("xi-api-key = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model_id"); got != "scribe_v1" {
			t.Errorf("model_id = %q", got)
		}
		if got := r.FormValue("language_code"); got != "km" {
			t.Errorf("language_code = %q, want km", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing audio file field: %v", err)
		}
		json.NewEncoder(w).Encode(elevenLabsResponse{Text: "hello"})
	}))
	defer srv.Close()

	a := newElevenLabsAdapter("el-key", "scribe_v1")
	a.baseURL = srv.URL

	text, err := a.Transcribe(context.Background(), testArtifact(), "khm")
	if err != nil {
		t.Fatalf("Transcribe() error: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want hello", text)
	}
}

func TestAdapterHonorsContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	a := newGeminiAdapter("test-key", "gemini-2.0-flash")
	a.baseURL = srv.URL

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.Transcribe(ctx, testArtifact(), "")
	if err == nil {
		t.Fatal("Transcribe() should fail when the context expires")
	}
	if got := Classify("gemini", err); got.Class != ClassNetwork {
		t.Errorf("cancelled call classified as %s, want %s", got.Class, ClassNetwork)
	}
}
