package transcription

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ruminantia/fodder/internal/audio"
	"github.com/ruminantia/fodder/internal/config"
	"github.com/ruminantia/fodder/internal/logger"
)

// OutcomeKind classifies the result of one transcription call.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeEmpty
	OutcomeTimeout
	OutcomeFailure
)

// Outcome is the per-segment result. Failures are values, never panics, so
// one bad segment can't take down a whole run.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// Client issues one streamed chat-completions request per audio segment
// against a Qwen (OpenAI-compatible) endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration

	httpClient *http.Client
	log        *logrus.Entry
}

// NewClient fails fast on missing credentials, before any run starts.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateTranscription(); err != nil {
		return nil, err
	}
	return &Client{
		apiKey:  cfg.QwenAPIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: cfg.RequestTimeout,
		// No client-level timeout: the per-call context bounds the stream.
		httpClient: &http.Client{},
		log:        logger.New().WithField("module", "transcription"),
	}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Modalities     []string      `json:"modalities"`
	EnableThinking bool          `json:"enable_thinking"`
	Stream         bool          `json:"stream"`
	StreamOptions  streamOptions `json:"stream_options"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	InputAudio *inputAudio `json:"input_audio,omitempty"`
}

type inputAudio struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Transcribe sends one segment plus its instruction and accumulates the
// streamed response into a single string. The call is bounded by the
// configured timeout; on expiry the in-flight stream is abandoned.
func (c *Client) Transcribe(ctx context.Context, seg audio.Segment, prompt string) Outcome {
	payload, err := os.ReadFile(seg.Path)
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Err: fmt.Errorf("read segment: %w", err)}
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{
					Type: "input_audio",
					InputAudio: &inputAudio{
						Data:   "data:;base64," + base64.StdEncoding.EncodeToString(payload),
						Format: seg.Format,
					},
				},
				{Type: "text", Text: prompt},
			},
		}},
		Modalities:     []string{"text"},
		EnableThinking: true,
		Stream:         true,
		StreamOptions:  streamOptions{IncludeUsage: true},
	})
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Err: fmt.Errorf("encode request: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Outcome{Kind: OutcomeFailure, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classify(ctx, seg, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Outcome{Kind: OutcomeFailure, Err: fmt.Errorf("inference service http %d: %s", resp.StatusCode, b)}
	}

	text, err := readStream(resp.Body)
	if err != nil {
		return c.classify(ctx, seg, err)
	}
	if text == "" {
		return Outcome{Kind: OutcomeEmpty}
	}
	return Outcome{Kind: OutcomeSuccess, Text: text}
}

func (c *Client) classify(ctx context.Context, seg audio.Segment, err error) Outcome {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		c.log.WithFields(logrus.Fields{
			"segment": seg.Index,
			"timeout": c.timeout,
		}).Warn("transcription timeout")
		return Outcome{Kind: OutcomeTimeout, Err: err}
	}
	c.log.WithError(err).WithField("segment", seg.Index).Warn("transcription request failed")
	return Outcome{Kind: OutcomeFailure, Err: err}
}

// readStream concatenates the delta content of an SSE chat-completion stream.
func readStream(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 512*1024)

	var b strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}
		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) > 0 {
			b.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return b.String(), nil
}
