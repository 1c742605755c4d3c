package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/chatsrt/internal/domain"
)

const (
	serviceName    = "chatsrt"
	serviceVersion = "1.0.0"
)

// ErrDisabled is returned by NewExporter when export is not configured.
var ErrDisabled = errors.New("OTEL exporter is disabled or endpoint not configured")

// Exporter exports conversion metrics to an OTEL Collector.
type Exporter struct {
	provider         *sdkmetric.MeterProvider
	conversionsTotal metric.Int64Counter
	cuesTotal        metric.Int64Counter
	skippedTotal     metric.Int64Counter
	durationHist     metric.Float64Histogram
	inputBytesHist   metric.Int64Histogram
}

// NewExporter creates an exporter that pushes to the configured OTLP gRPC
// endpoint.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Active() {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	e, err := newExporter(ctx, sdkmetric.NewPeriodicReader(exp))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(e.provider)
	return e, nil
}

func newExporter(ctx context.Context, reader sdkmetric.Reader) (*Exporter, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	meter := provider.Meter(serviceName)

	conversionsTotal, err := meter.Int64Counter(
		"chatsrt_conversions_total",
		metric.WithDescription("Total number of chat logs converted"),
		metric.WithUnit("{conversion}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversions counter: %w", err)
	}

	cuesTotal, err := meter.Int64Counter(
		"chatsrt_cues_total",
		metric.WithDescription("Total subtitle cues written"),
		metric.WithUnit("{cue}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cues counter: %w", err)
	}

	skippedTotal, err := meter.Int64Counter(
		"chatsrt_records_skipped_total",
		metric.WithDescription("Chat records that did not become a cue"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating skipped counter: %w", err)
	}

	durationHist, err := meter.Float64Histogram(
		"chatsrt_conversion_duration_seconds",
		metric.WithDescription("Wall time spent converting a chat log"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	inputBytesHist, err := meter.Int64Histogram(
		"chatsrt_input_bytes",
		metric.WithDescription("Size of converted chat logs"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating input size histogram: %w", err)
	}

	return &Exporter{
		provider:         provider,
		conversionsTotal: conversionsTotal,
		cuesTotal:        cuesTotal,
		skippedTotal:     skippedTotal,
		durationHist:     durationHist,
		inputBytesHist:   inputBytesHist,
	}, nil
}

// ExportConversion records the counters of a finished conversion.
func (e *Exporter) ExportConversion(ctx context.Context, c *domain.Conversion) error {
	opt := metric.WithAttributes(
		attribute.Bool("archived", c.ArchivedPath != nil),
		attribute.Bool("empty", c.CuesWritten == 0),
	)

	e.conversionsTotal.Add(ctx, 1, opt)
	e.cuesTotal.Add(ctx, c.CuesWritten, opt)
	e.skippedTotal.Add(ctx, c.NonMessages, metric.WithAttributes(attribute.String("reason", "not_a_message")))
	e.skippedTotal.Add(ctx, c.Dropped, metric.WithAttributes(attribute.String("reason", "dropped")))
	e.durationHist.Record(ctx, float64(c.ElapsedMs)/1000, opt)
	e.inputBytesHist.Record(ctx, c.InputBytes, opt)

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
