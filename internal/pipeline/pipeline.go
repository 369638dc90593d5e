package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ruminantia/fodder/internal/audio"
	"github.com/ruminantia/fodder/internal/logger"
	"github.com/ruminantia/fodder/internal/transcription"
)

// Transcriber is the single remote-call boundary the orchestrator depends on.
type Transcriber interface {
	Transcribe(ctx context.Context, seg audio.Segment, prompt string) transcription.Outcome
}

// Orchestrator drives the ordered segments of one recording through the
// transcription service, threading the accumulated transcript into each
// following prompt. The loop is deliberately sequential: every prompt after
// the first depends on the output of all prior calls, so parallelizing would
// break narrative continuity.
type Orchestrator struct {
	client Transcriber
	log    *logger.Logger
}

func NewOrchestrator(client Transcriber) *Orchestrator {
	return &Orchestrator{client: client, log: logger.New()}
}

// Run transcribes every segment in order and returns the labeled transcript.
// A failed, timed-out, or empty segment becomes an inline placeholder; the
// run itself always completes.
func (o *Orchestrator) Run(ctx context.Context, segments []audio.Segment) string {
	total := len(segments)
	if total == 0 {
		return ""
	}

	log := o.log.WithRun().WithFields(logrus.Fields{
		"module":   "pipeline",
		"segments": total,
	})
	log.Info("transcription run started")

	results := make([]string, 0, total)
	var contextSoFar string

	for i, seg := range segments {
		pos := transcription.PositionFor(i, total)
		prompt := transcription.BuildPrompt(pos, i, total, contextSoFar)

		outcome := o.client.Transcribe(ctx, seg, prompt)
		segLog := log.WithFields(logrus.Fields{
			"segment":  i,
			"position": pos.String(),
		})

		switch outcome.Kind {
		case transcription.OutcomeSuccess:
			results = append(results, outcome.Text)
			// Context accumulates success text only; placeholders would
			// poison the prompts of later segments.
			if contextSoFar == "" {
				contextSoFar = outcome.Text
			} else {
				contextSoFar += " " + outcome.Text
			}
			segLog.WithField("chars", len(outcome.Text)).Info("segment transcribed")

		case transcription.OutcomeEmpty:
			results = append(results, fmt.Sprintf("[Empty transcription for chunk %d]", i+1))
			segLog.Warn("segment returned no text")

		case transcription.OutcomeTimeout:
			results = append(results, "[Transcription timeout]")
			segLog.Warn("segment timed out")

		default:
			results = append(results, fmt.Sprintf("[Error in chunk %d]", i+1))
			segLog.WithError(outcome.Err).Warn("segment failed")
		}
	}

	parts := make([]string, len(results))
	for i, text := range results {
		if total > 1 {
			parts[i] = fmt.Sprintf("(%d/%d) %s", i+1, total, text)
		} else {
			parts[i] = text
		}
	}

	transcript := strings.TrimSpace(strings.Join(parts, " "))
	log.WithField("chars", len(transcript)).Info("transcription run finished")
	return transcript
}
