package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
	"github.com/emiliopalmerini/chatsrt/internal/infrastructure/database"
	"github.com/emiliopalmerini/chatsrt/internal/ports"
	"github.com/emiliopalmerini/chatsrt/internal/util"
)

const (
	defaultListLimit = 50
	maxReadRetries   = 2
)

const conversionColumns = `id, input_path, output_path, archived_path, input_bytes, records,
	non_messages, dropped, entries_kept, cues_written, first_timestamp_usec, elapsed_ms, created_at`

type ConversionRepository struct {
	db *sql.DB
}

func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

func (r *ConversionRepository) Create(ctx context.Context, c *domain.Conversion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO conversions (`+conversionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.InputPath,
		c.OutputPath,
		util.NullStringPtr(c.ArchivedPath),
		c.InputBytes,
		c.Records,
		c.NonMessages,
		c.Dropped,
		c.EntriesKept,
		c.CuesWritten,
		util.NullInt64(c.FirstTimestamp),
		c.ElapsedMs,
		c.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create conversion: %w", err)
	}
	return nil
}

// GetByID looks up an exact id first, then a unique id prefix. It returns
// nil without an error when nothing matches.
func (r *ConversionRepository) GetByID(ctx context.Context, id string) (*domain.Conversion, error) {
	if id == "" {
		return nil, nil
	}
	matches, err := database.WithRetry(ctx, maxReadRetries, func() ([]*domain.Conversion, error) {
		c, err := scanConversion(r.db.QueryRowContext(ctx,
			`SELECT `+conversionColumns+` FROM conversions WHERE id = ?`, id))
		if err == nil {
			return []*domain.Conversion{c}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return r.queryConversions(ctx,
			`SELECT `+conversionColumns+` FROM conversions WHERE id LIKE ? ESCAPE '\' LIMIT 2`,
			likePrefix(id))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrAmbiguousID, id)
	}
}

func likePrefix(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s) + "%"
}

// List returns the most recent conversions first.
func (r *ConversionRepository) List(ctx context.Context, opts ports.ListConversionsOptions) ([]*domain.Conversion, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var (
		where []string
		args  []any
	)
	if opts.InputPath != nil {
		where = append(where, "input_path = ?")
		args = append(args, *opts.InputPath)
	}
	if opts.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, opts.Since.UTC().Format(time.RFC3339))
	}

	query := `SELECT ` + conversionColumns + ` FROM conversions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	conversions, err := database.WithRetry(ctx, maxReadRetries, func() ([]*domain.Conversion, error) {
		return r.queryConversions(ctx, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	return conversions, nil
}

func (r *ConversionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conversions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	return nil
}

func (r *ConversionRepository) queryConversions(ctx context.Context, query string, args ...any) ([]*domain.Conversion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.Conversion
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(s scanner) (*domain.Conversion, error) {
	var (
		c              domain.Conversion
		archivedPath   sql.NullString
		firstTimestamp sql.NullInt64
		createdAt      string
	)
	err := s.Scan(
		&c.ID,
		&c.InputPath,
		&c.OutputPath,
		&archivedPath,
		&c.InputBytes,
		&c.Records,
		&c.NonMessages,
		&c.Dropped,
		&c.EntriesKept,
		&c.CuesWritten,
		&firstTimestamp,
		&c.ElapsedMs,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	c.ArchivedPath = util.NullStringToPtr(archivedPath)
	c.FirstTimestamp = util.NullInt64ToPtr(firstTimestamp)
	c.CreatedAt = util.ParseTimeRFC3339(createdAt)
	return &c, nil
}
