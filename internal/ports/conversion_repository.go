package ports

import (
	"context"
	"errors"
	"time"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

// ErrAmbiguousID means an id prefix matches more than one conversion.
var ErrAmbiguousID = errors.New("ambiguous conversion id")

type ConversionRepository interface {
	Create(ctx context.Context, c *domain.Conversion) error
	// GetByID accepts a full id or a unique prefix of one. It returns nil
	// when nothing matches.
	GetByID(ctx context.Context, id string) (*domain.Conversion, error)
	List(ctx context.Context, opts ListConversionsOptions) ([]*domain.Conversion, error)
	Delete(ctx context.Context, id string) error
}

type ListConversionsOptions struct {
	Limit     int
	InputPath *string
	Since     *time.Time
}
