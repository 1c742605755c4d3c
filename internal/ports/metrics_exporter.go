package ports

import (
	"context"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

// MetricsExporter exports conversion metrics to an external observability system.
type MetricsExporter interface {
	// ExportConversion records the counters of a finished conversion.
	ExportConversion(ctx context.Context, c *domain.Conversion) error
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}
