package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ruminantia/fodder/internal/audio"
	"github.com/ruminantia/fodder/internal/config"
)

func testConfig(baseURL string, timeout time.Duration) *config.Config {
	return &config.Config{
		QwenAPIKey:     "test-key",
		BaseURL:        baseURL,
		Model:          "qwen3-omni-flash",
		RequestTimeout: timeout,
	}
}

func testSegment(t *testing.T) audio.Segment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seg.wav")
	if err := os.WriteFile(path, []byte("RIFF fake audio payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	return audio.Segment{Index: 0, Total: 1, Path: path, Format: "wav"}
}

func sse(deltas ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", d)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(&config.Config{}); err == nil {
		t.Fatal("missing QWEN_API_KEY must fail at construction")
	}
}

func TestTranscribeAccumulatesStream(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		sse("A muffled ", "voice counts ", "to ten.")(w, r)
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL, 5*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	out := c.Transcribe(context.Background(), testSegment(t), "describe it")

	if out.Kind != OutcomeSuccess {
		t.Fatalf("kind = %v, err = %v", out.Kind, out.Err)
	}
	if out.Text != "A muffled voice counts to ten." {
		t.Fatalf("text = %q", out.Text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if !gotReq.Stream || gotReq.Model != "qwen3-omni-flash" {
		t.Fatalf("request not a streamed model call: %+v", gotReq)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("request message shape: %+v", gotReq.Messages)
	}
	ia := gotReq.Messages[0].Content[0].InputAudio
	if ia == nil || ia.Format != "wav" || !strings.HasPrefix(ia.Data, "data:;base64,") {
		t.Fatalf("input_audio part malformed: %+v", ia)
	}
	if gotReq.Messages[0].Content[1].Text != "describe it" {
		t.Fatalf("prompt not carried: %+v", gotReq.Messages[0].Content[1])
	}
}

func TestTranscribeEmptyStream(t *testing.T) {
	srv := httptest.NewServer(sse())
	defer srv.Close()

	c, _ := NewClient(testConfig(srv.URL, 5*time.Second))
	out := c.Transcribe(context.Background(), testSegment(t), "p")
	if out.Kind != OutcomeEmpty {
		t.Fatalf("kind = %v, want OutcomeEmpty", out.Kind)
	}
}

func TestTranscribeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c, _ := NewClient(testConfig(srv.URL, 50*time.Millisecond))
	out := c.Transcribe(context.Background(), testSegment(t), "p")
	if out.Kind != OutcomeTimeout {
		t.Fatalf("kind = %v, want OutcomeTimeout", out.Kind)
	}
}

func TestTranscribeServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, _ := NewClient(testConfig(srv.URL, 5*time.Second))
	out := c.Transcribe(context.Background(), testSegment(t), "p")
	if out.Kind != OutcomeFailure {
		t.Fatalf("kind = %v, want OutcomeFailure", out.Kind)
	}
	if out.Err == nil || !strings.Contains(out.Err.Error(), "401") {
		t.Fatalf("err = %v", out.Err)
	}
}

func TestTranscribeUnreadableSegment(t *testing.T) {
	c, _ := NewClient(testConfig("http://127.0.0.1:0", time.Second))
	out := c.Transcribe(context.Background(), audio.Segment{Path: "does/not/exist.wav", Format: "wav"}, "p")
	if out.Kind != OutcomeFailure {
		t.Fatalf("kind = %v, want OutcomeFailure", out.Kind)
	}
}
