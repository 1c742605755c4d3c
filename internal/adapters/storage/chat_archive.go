package storage

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChatArchive keeps gzip-compressed copies of converted chat logs on disk,
// one <conversion id>.jsonl.gz file each.
type ChatArchive struct {
	baseDir string
}

func NewChatArchive(dir string) (*ChatArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &ChatArchive{baseDir: dir}, nil
}

func (s *ChatArchive) Store(ctx context.Context, conversionID string, sourcePath string) (string, error) {
	destPath := s.getPath(conversionID)

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() { _ = src.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() { _ = dest.Close() }()

	gw := gzip.NewWriter(dest)
	gw.Name = filepath.Base(sourcePath)

	if _, err := io.Copy(gw, src); err != nil {
		_ = gw.Close()
		_ = os.Remove(destPath)
		return "", fmt.Errorf("failed to compress chat log: %w", err)
	}
	if err := gw.Close(); err != nil {
		_ = os.Remove(destPath)
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return destPath, nil
}

func (s *ChatArchive) Get(ctx context.Context, conversionID string) ([]byte, error) {
	file, err := os.Open(s.getPath(conversionID))
	if err != nil {
		return nil, fmt.Errorf("failed to open archived chat log: %w", err)
	}
	defer func() { _ = file.Close() }()

	gr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer func() { _ = gr.Close() }()

	data, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived chat log: %w", err)
	}

	return data, nil
}

func (s *ChatArchive) Delete(ctx context.Context, conversionID string) error {
	if err := os.Remove(s.getPath(conversionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete archived chat log: %w", err)
	}
	return nil
}

func (s *ChatArchive) Exists(ctx context.Context, conversionID string) (bool, error) {
	_, err := os.Stat(s.getPath(conversionID))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *ChatArchive) getPath(conversionID string) string {
	return filepath.Join(s.baseDir, conversionID+".jsonl.gz")
}
