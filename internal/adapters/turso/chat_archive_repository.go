package turso

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
)

// StoredInDB is the stored path reported for chat logs kept in the database.
const StoredInDB = "db"

// ChatArchiveRepository keeps gzip-compressed chat logs in the history
// database, for setups where the history store is remote.
type ChatArchiveRepository struct {
	db *sql.DB
}

func NewChatArchiveRepository(db *sql.DB) *ChatArchiveRepository {
	return &ChatArchiveRepository{db: db}
}

func (r *ChatArchiveRepository) Store(ctx context.Context, conversionID string, sourcePath string) (string, error) {
	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)

	if _, err := io.Copy(gw, src); err != nil {
		return "", fmt.Errorf("failed to compress chat log: %w", err)
	}
	if err := gw.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chat_archives (conversion_id, gzip_data) VALUES (?, ?)
		ON CONFLICT(conversion_id) DO UPDATE SET gzip_data = excluded.gzip_data`,
		conversionID, buf.Bytes(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to store chat log in database: %w", err)
	}

	return StoredInDB, nil
}

func (r *ChatArchiveRepository) Get(ctx context.Context, conversionID string) ([]byte, error) {
	var gzipData []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT gzip_data FROM chat_archives WHERE conversion_id = ?`, conversionID,
	).Scan(&gzipData)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat log from database: %w", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(gzipData))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress chat log: %w", err)
	}

	return data, nil
}

func (r *ChatArchiveRepository) Delete(ctx context.Context, conversionID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_archives WHERE conversion_id = ?`, conversionID); err != nil {
		return fmt.Errorf("failed to delete chat log: %w", err)
	}
	return nil
}

func (r *ChatArchiveRepository) Exists(ctx context.Context, conversionID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM chat_archives WHERE conversion_id = ?`, conversionID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
