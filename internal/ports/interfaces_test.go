package ports_test

import (
	"testing"

	"github.com/emiliopalmerini/chatsrt/internal/adapters/otel"
	"github.com/emiliopalmerini/chatsrt/internal/adapters/storage"
	"github.com/emiliopalmerini/chatsrt/internal/adapters/turso"
	"github.com/emiliopalmerini/chatsrt/internal/ports"
)

// Compile-time interface conformance checks.

func TestConversionRepositoryConformance(t *testing.T) {
	var _ ports.ConversionRepository = (*turso.ConversionRepository)(nil)
}

func TestChatArchiveConformance(t *testing.T) {
	var _ ports.ChatArchive = (*storage.ChatArchive)(nil)
	var _ ports.ChatArchive = (*turso.ChatArchiveRepository)(nil)
}

func TestMetricsExporterConformance(t *testing.T) {
	var _ ports.MetricsExporter = (*otel.Exporter)(nil)
	var _ ports.MetricsExporter = (*otel.NoOpExporter)(nil)
}
