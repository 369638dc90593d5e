package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/ruminantia/fodder/internal/audio"
	"github.com/ruminantia/fodder/internal/config"
	"github.com/ruminantia/fodder/internal/delivery"
	"github.com/ruminantia/fodder/internal/logger"
	"github.com/ruminantia/fodder/internal/pipeline"
	"github.com/ruminantia/fodder/internal/record"
	"github.com/ruminantia/fodder/internal/transcription"
)

// codeFenceOverhead is what wrapping a message in ```...``` costs against
// the platform's character limit.
const codeFenceOverhead = len("```\n") + len("\n```")

// Bot watches the configured channel for audio attachments and answers each
// one with its transcript. Every attachment is an independent run; discordgo
// dispatches handlers on their own goroutines and runs share no state.
type Bot struct {
	session *discordgo.Session
	chunker *audio.Chunker
	orch    *pipeline.Orchestrator
	records *record.Writer
	cfg     *config.Config
	log     *logrus.Entry
}

func New(cfg *config.Config) (*Bot, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, err
	}
	client, err := transcription.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		chunker: audio.NewChunker(cfg.ScratchDir, cfg.ChunkSeconds),
		orch:    pipeline.NewOrchestrator(client),
		records: record.NewWriter(cfg.RecordDir),
		cfg:     cfg,
		log:     logger.New().WithField("module", "bot"),
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord gateway: %w", err)
	}
	defer b.session.Close()

	b.log.WithField("channel", b.cfg.ChannelName).Info("watching for audio attachments")
	<-ctx.Done()
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.WithField("user", r.User.String()).Info("logged in")
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	ch, err := s.State.Channel(m.ChannelID)
	if err != nil {
		if ch, err = s.Channel(m.ChannelID); err != nil {
			return
		}
	}
	if ch.Name != b.cfg.ChannelName {
		return
	}

	for _, att := range m.Attachments {
		if !strings.HasPrefix(att.ContentType, "audio/") {
			continue
		}
		log := b.log.WithFields(logrus.Fields{
			"attachment": att.Filename,
			"channel":    ch.Name,
		})
		log.Info("processing audio attachment")
		if err := b.processAttachment(context.Background(), m.ChannelID, att); err != nil {
			log.WithError(err).Error("attachment processing failed")
			_, _ = s.ChannelMessageSend(m.ChannelID, "Sorry, there was an error processing the audio file.")
		}
	}
}

func (b *Bot) processAttachment(ctx context.Context, channelID string, att *discordgo.MessageAttachment) error {
	audioPath := filepath.Join(b.cfg.DownloadDir, att.Filename)
	if err := download(ctx, att.URL, audioPath); err != nil {
		return fmt.Errorf("download: %w", err)
	}

	segments := b.chunker.Split(ctx, audioPath)
	transcript := b.orch.Run(ctx, segments)
	b.cleanup(audioPath, segments)

	if path, err := b.records.Save(transcript); err != nil {
		// A lost record shouldn't cost the user their transcript.
		b.log.WithError(err).Warn("record write failed")
	} else {
		b.log.WithField("record", path).Info("transcript saved")
	}

	maxLen := b.cfg.MaxMessageLen - codeFenceOverhead
	for _, unit := range delivery.Split(transcript, maxLen) {
		if _, err := b.session.ChannelMessageSend(channelID, "```\n"+unit+"\n```"); err != nil {
			return fmt.Errorf("send transcript: %w", err)
		}
	}
	return nil
}

// cleanup removes the downloaded source and any re-encoded scratch chunks.
// A passthrough segment shares the source path, so only remove chunk files
// and their per-run directory when chunking actually happened.
func (b *Bot) cleanup(audioPath string, segments []audio.Segment) {
	_ = os.Remove(audioPath)
	if len(segments) == 0 || segments[0].Path == audioPath {
		return
	}
	for _, seg := range segments {
		_ = os.Remove(seg.Path)
	}
	_ = os.Remove(filepath.Dir(segments[0].Path))
}
