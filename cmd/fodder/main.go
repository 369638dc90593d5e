package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ruminantia/fodder/internal/audio"
	"github.com/ruminantia/fodder/internal/bot"
	"github.com/ruminantia/fodder/internal/config"
	"github.com/ruminantia/fodder/internal/logger"
	"github.com/ruminantia/fodder/internal/pipeline"
	"github.com/ruminantia/fodder/internal/record"
	"github.com/ruminantia/fodder/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	root := &cobra.Command{
		Use:           "fodder",
		Short:         "Discord bot that transcribes audio attachments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	root.AddCommand(&cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe one local audio file and print the transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runTranscribe,
	})

	if err := root.Execute(); err != nil {
		logger.New().WithError(err).Fatal("fodder exited")
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New().WithField("service", "fodder")
	log.Info("starting service")

	b, err := bot.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		return err
	}
	log.Info("shutting down")
	return nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := transcription.NewClient(cfg)
	if err != nil {
		return err
	}

	log := logger.New().WithField("service", "fodder")
	chunker := audio.NewChunker(cfg.ScratchDir, cfg.ChunkSeconds)
	orch := pipeline.NewOrchestrator(client)

	segments := chunker.Split(cmd.Context(), args[0])
	transcript := orch.Run(cmd.Context(), segments)
	removeScratch(args[0], segments)

	if path, err := record.NewWriter(cfg.RecordDir).Save(transcript); err != nil {
		log.WithError(err).Warn("record write failed")
	} else {
		log.WithField("record", path).Info("transcript saved")
	}

	fmt.Println(transcript)
	return nil
}

// removeScratch drops re-encoded chunk files, never the source itself.
func removeScratch(srcPath string, segments []audio.Segment) {
	if len(segments) == 0 || segments[0].Path == srcPath {
		return
	}
	for _, seg := range segments {
		_ = os.Remove(seg.Path)
	}
	_ = os.Remove(filepath.Dir(segments[0].Path))
}
