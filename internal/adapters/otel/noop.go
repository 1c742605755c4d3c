package otel

import (
	"context"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

// NoOpExporter stands in when metrics export is off. Reason says why.
type NoOpExporter struct {
	Reason string
}

func NewNoOpExporter(reason string) *NoOpExporter {
	return &NoOpExporter{Reason: reason}
}

func (*NoOpExporter) ExportConversion(context.Context, *domain.Conversion) error { return nil }

func (*NoOpExporter) Close(context.Context) error { return nil }
