package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ruminantia/fodder/internal/logger"
)

// Chunker splits a recording into bounded-duration WAV segments for the
// inference service. Splitting is best effort: any probe or re-encode failure
// degrades to a single passthrough segment so the pipeline always gets input.
type Chunker struct {
	ScratchDir   string
	ChunkSeconds int

	log *logrus.Entry
}

func NewChunker(scratchDir string, chunkSeconds int) *Chunker {
	return &Chunker{
		ScratchDir:   scratchDir,
		ChunkSeconds: chunkSeconds,
		log:          logger.New().WithField("module", "audio"),
	}
}

type window struct {
	start  float64
	length float64
}

// planWindows partitions [0, durationSec) into consecutive windows of
// chunkSeconds; only the final window may be shorter.
func planWindows(durationSec float64, chunkSeconds int) []window {
	step := float64(chunkSeconds)
	var ws []window
	for start := 0.0; start < durationSec; start += step {
		length := step
		if start+length > durationSec {
			length = durationSec - start
		}
		ws = append(ws, window{start: start, length: length})
	}
	return ws
}

// Split returns the ordered segments for one source file. Sources at or under
// ChunkSeconds are passed through unchanged; longer sources are re-encoded
// window by window into a per-run scratch directory that the caller removes
// after the run.
func (c *Chunker) Split(ctx context.Context, path string) []Segment {
	dur, err := ProbeDuration(ctx, path)
	if err != nil {
		c.log.WithError(err).WithField("path", path).Warn("probe failed, skipping chunking")
		return c.passthrough(path)
	}

	secs := dur.Seconds()
	if secs <= float64(c.ChunkSeconds) {
		return c.passthrough(path)
	}

	runDir := filepath.Join(c.ScratchDir, uuid.New().String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		c.log.WithError(err).Warn("scratch dir failed, skipping chunking")
		return c.passthrough(path)
	}

	windows := planWindows(secs, c.ChunkSeconds)
	segments := make([]Segment, 0, len(windows))
	for i, w := range windows {
		out := filepath.Join(runDir, fmt.Sprintf("chunk_%d.wav", i))
		if err := exportWindow(ctx, path, out, w); err != nil {
			c.log.WithError(err).WithField("chunk", i).Warn("re-encode failed, skipping chunking")
			_ = os.RemoveAll(runDir)
			return c.passthrough(path)
		}
		segments = append(segments, Segment{
			Index:  i,
			Total:  len(windows),
			Path:   out,
			Format: "wav",
		})
	}

	c.log.WithFields(logrus.Fields{
		"path":     path,
		"duration": dur,
		"segments": len(segments),
	}).Info("audio chunked")
	return segments
}

func (c *Chunker) passthrough(path string) []Segment {
	return []Segment{{Index: 0, Total: 1, Path: path, Format: FormatFor(path)}}
}

func exportWindow(ctx context.Context, src, dst string, w window) error {
	// ffmpeg -y -v error -ss start -t length -i src -f wav dst
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-v", "error",
		"-ss", formatSeconds(w.start),
		"-t", formatSeconds(w.length),
		"-i", src,
		"-f", "wav",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, out)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
