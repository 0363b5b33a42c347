package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"questhelper/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// MetricsProvider manages OpenTelemetry metrics for the bot. All Record
// methods are safe to call on a nil or disabled provider.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	enabled       bool
	mu            sync.RWMutex

	commandsRoutedCounter   metric.Int64Counter
	commandDurationHist     metric.Float64Histogram
	reactionsCounter        metric.Int64Counter
	prunedReferencesCounter metric.Int64Counter
	autoRoleCounter         metric.Int64Counter
	natsPublishedCounter    metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the exporter and instruments
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	if !mp.config.OTelEnabled {
		log.Info("OpenTelemetry metrics disabled")
		mp.initialized = true
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	var reader sdkmetric.Reader
	switch mp.config.OTelExporterType {
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.Info("Using console metric exporter")

	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err := otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = mp.periodicReader(exporter)
		log.WithField("endpoint", mp.config.OTelOTLPEndpoint).Info("Using OTLP metric exporter")

	case "none":
		log.Info("Metrics export disabled (exporter_type='none')")
		mp.initialized = true
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}

	return mp.initWithReader(res, reader)
}

// InitializeWithReader wires the provider to a caller-supplied reader.
// Tests use it with sdkmetric.NewManualReader.
func (mp *MetricsProvider) InitializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.initWithReader(resource.Default(), reader)
}

func (mp *MetricsProvider) periodicReader(exporter sdkmetric.Exporter) sdkmetric.Reader {
	return sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
}

func (mp *MetricsProvider) initWithReader(res *resource.Resource, reader sdkmetric.Reader) error {
	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("questhelper")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	mp.enabled = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	var err error

	mp.commandsRoutedCounter, err = mp.meter.Int64Counter(
		CommandsRoutedTotal,
		metric.WithDescription("Total number of routed text commands by outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create commands routed counter: %w", err)
	}

	mp.commandDurationHist, err = mp.meter.Float64Histogram(
		CommandDuration,
		metric.WithDescription("Duration of command handling in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create command duration histogram: %w", err)
	}

	mp.reactionsCounter, err = mp.meter.Int64Counter(
		ReactionsProcessedTotal,
		metric.WithDescription("Total number of reactions processed on diary control messages"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create reactions counter: %w", err)
	}

	mp.prunedReferencesCounter, err = mp.meter.Int64Counter(
		RoleReferencesPrunedTotal,
		metric.WithDescription("Total number of stale role references removed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create pruned references counter: %w", err)
	}

	mp.autoRoleCounter, err = mp.meter.Int64Counter(
		AutoRoleAssignmentsTotal,
		metric.WithDescription("Total number of join-time role assignments by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create auto-role counter: %w", err)
	}

	mp.natsPublishedCounter, err = mp.meter.Int64Counter(
		NATSMessagesPublishedTotal,
		metric.WithDescription("Total number of NATS messages published"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create NATS messages published counter: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the meter provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordCommand records a routed command outcome and its duration
func (mp *MetricsProvider) RecordCommand(command, outcome string, duration time.Duration) {
	if !mp.isEnabled() {
		return
	}

	mp.commandsRoutedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelCommand, command),
			attribute.String(LabelOutcome, outcome),
		),
	)
	if outcome != "ignored" {
		mp.commandDurationHist.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(attribute.String(LabelCommand, command)),
		)
	}
}

// RecordReaction records the result of a reaction on a control message
func (mp *MetricsProvider) RecordReaction(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.reactionsCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelResult, result)),
	)
}

// RecordPrunedReferences records removed role references
func (mp *MetricsProvider) RecordPrunedReferences(kind string, count int) {
	if !mp.isEnabled() || count == 0 {
		return
	}

	mp.prunedReferencesCounter.Add(context.Background(), int64(count),
		metric.WithAttributes(attribute.String(LabelKind, kind)),
	)
}

// RecordAutoRole records a join-time assignment result
func (mp *MetricsProvider) RecordAutoRole(result string) {
	if !mp.isEnabled() {
		return
	}

	mp.autoRoleCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelResult, result)),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.enabled
}

// Global metrics provider instance
var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider, which may be nil
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
