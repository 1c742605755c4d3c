package ports

import "context"

// ChatArchive keeps a compressed copy of each converted chat log, keyed by
// conversion id.
type ChatArchive interface {
	Store(ctx context.Context, conversionID string, sourcePath string) (storedPath string, err error)
	Get(ctx context.Context, conversionID string) ([]byte, error)
	Delete(ctx context.Context, conversionID string) error
	Exists(ctx context.Context, conversionID string) (bool, error)
}
