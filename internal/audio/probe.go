package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
)

// ProbeDuration reports the playable length of an audio file. WAV files are
// read directly; everything else goes through ffprobe.
func ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if d, err := wavDuration(path); err == nil {
			return d, nil
		}
	}
	return ffprobeDuration(ctx, path)
}

func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav decode: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("wav decode: empty stream")
	}
	return d, nil
}

func ffprobeDuration(ctx context.Context, path string) (time.Duration, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	var parsed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		return 0, fmt.Errorf("ffprobe output: %w", err)
	}
	secs, err := strconv.ParseFloat(parsed.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q: %w", parsed.Format.Duration, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
