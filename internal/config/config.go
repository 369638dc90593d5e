package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	defaultModel   = "qwen3-omni-flash"
)

type Config struct {
	DiscordToken string
	QwenAPIKey   string
	BaseURL      string
	Model        string

	ChannelName      string
	ChunkSeconds     int
	RequestTimeout   time.Duration
	MaxMessageLen    int

	DownloadDir string
	RecordDir   string
	ScratchDir  string
}

// Load reads the whole configuration from the environment. Call after
// godotenv has populated the process env.
func Load() (*Config, error) {
	cfg := &Config{
		DiscordToken:   os.Getenv("DISCORD_BOT_TOKEN"),
		QwenAPIKey:     os.Getenv("QWEN_API_KEY"),
		BaseURL:        envOr("QWEN_BASE_URL", defaultBaseURL),
		Model:          envOr("QWEN_MODEL", defaultModel),
		ChannelName:    envOr("FODDER_CHANNEL", "fodder"),
		ChunkSeconds:   20,
		RequestTimeout: 60 * time.Second,
		MaxMessageLen:  2000,
		DownloadDir:    envOr("DOWNLOAD_DIR", "downloads"),
		RecordDir:      envOr("RECORD_DIR", "fodder"),
		ScratchDir:     envOr("SCRATCH_DIR", "temp_chunks"),
	}

	if v := os.Getenv("CHUNK_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid CHUNK_SECONDS %q", v)
		}
		cfg.ChunkSeconds = n
	}
	if v := os.Getenv("TRANSCRIBE_TIMEOUT_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid TRANSCRIBE_TIMEOUT_SEC %q", v)
		}
		cfg.RequestTimeout = time.Duration(n) * time.Second
	}
	if v := os.Getenv("MAX_MESSAGE_LEN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_MESSAGE_LEN %q", v)
		}
		cfg.MaxMessageLen = n
	}
	return cfg, nil
}

// ValidateTranscription checks everything a local transcription run needs.
func (c *Config) ValidateTranscription() error {
	if c.QwenAPIKey == "" {
		return errors.New("QWEN_API_KEY not found in environment variables")
	}
	return nil
}

// ValidateBot checks everything the Discord surface needs on top of transcription.
func (c *Config) ValidateBot() error {
	if err := c.ValidateTranscription(); err != nil {
		return err
	}
	if c.DiscordToken == "" {
		return errors.New("DISCORD_BOT_TOKEN not found in environment variables")
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
