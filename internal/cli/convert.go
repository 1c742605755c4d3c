package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
	"github.com/emiliopalmerini/chatsrt/internal/parser"
	"github.com/emiliopalmerini/chatsrt/internal/subtitle"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

// convertChat writes <path>.srt from the chat log at path. Archiving,
// history and metrics run afterwards and only log on failure.
func convertChat(ctx context.Context, app *AppContext, path string, out io.Writer) (*domain.Conversion, error) {
	start := time.Now()
	log := app.Logger.With(slog.String("component", "convert"), slog.String("input", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	parsed, err := parser.ParseChat(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	log.Debug("chat parsed",
		slog.Int64("records", parsed.Records),
		slog.Int64("non_messages", parsed.NonMessages),
		slog.Int64("dropped", parsed.Dropped),
		slog.Int("entries", len(parsed.Entries)))

	var first int64
	if parsed.FirstTimestamp != nil {
		first = *parsed.FirstTimestamp
	}
	cues := subtitle.BuildCues(parsed.Entries, app.Config.Timing(first))

	output := path + ".srt"
	if err := writeSubtitles(output, cues); err != nil {
		return nil, &WriteError{Path: output, Err: err}
	}

	conversion := &domain.Conversion{
		ID:             uuid.NewString(),
		InputPath:      absPath(path),
		OutputPath:     absPath(output),
		InputBytes:     parsed.Bytes,
		Records:        parsed.Records,
		NonMessages:    parsed.NonMessages,
		Dropped:        parsed.Dropped,
		EntriesKept:    int64(len(parsed.Entries)),
		CuesWritten:    int64(len(cues)),
		FirstTimestamp: parsed.FirstTimestamp,
		ElapsedMs:      time.Since(start).Milliseconds(),
		CreatedAt:      time.Now().UTC(),
	}
	log = log.With(slog.String("conversion_id", conversion.ID))

	recordConversion(ctx, app, conversion, path, log)

	fmt.Fprintf(out, "Wrote %d cues to %s (%d of %d records skipped, %s read)\n",
		conversion.CuesWritten, output, conversion.Skipped(), conversion.Records, util.FormatBytes(conversion.InputBytes))
	return conversion, nil
}

// writeSubtitles replaces output atomically so a failed run never leaves a
// partial file behind.
func writeSubtitles(output string, cues []domain.Cue) error {
	tmp, err := os.CreateTemp(filepath.Dir(output), filepath.Base(output)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := subtitle.WriteSRT(tmp, cues); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), output)
}

func recordConversion(ctx context.Context, app *AppContext, c *domain.Conversion, source string, log *slog.Logger) {
	archive, err := app.ChatArchive(ctx)
	if err != nil {
		log.Warn("chat archive unavailable", slog.Any("err", err))
	} else if archive != nil {
		stored, err := archive.Store(ctx, c.ID, source)
		if err != nil {
			log.Warn("failed to archive chat log", slog.Any("err", err))
		} else {
			c.ArchivedPath = &stored
		}
	}

	if app.Config.History.Enabled {
		repo, err := app.ConversionRepo(ctx)
		if err != nil {
			log.Warn("history unavailable", slog.Any("err", err))
		} else if err := repo.Create(ctx, c); err != nil {
			log.Warn("failed to record conversion", slog.Any("err", err))
		}
	}

	if err := app.MetricsExporter(ctx).ExportConversion(ctx, c); err != nil {
		log.Warn("failed to export metrics", slog.Any("err", err))
	}

	log.Info("conversion finished",
		slog.Int64("cues", c.CuesWritten),
		slog.Int64("skipped", c.Skipped()),
		slog.Int64("elapsed_ms", c.ElapsedMs))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
