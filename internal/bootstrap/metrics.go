package bootstrap

import (
	"context"
	"log/slog"

	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/observability/statsd"
)

// MetricsSink is the configured metrics sink plus its shutdown hook.
type MetricsSink struct {
	statsd.Sink
	// Recorder is set when metrics stay in process; the CLI status command reads it.
	Recorder *statsd.Recorder
	close    func() error
}

// Close releases the sink's connection, if any.
func (m MetricsSink) Close() error {
	if m.close == nil {
		return nil
	}
	return m.close()
}

// BuildMetricsSink dials StatsD when enabled. When disabled, or when the dial fails,
// metrics are kept in an in-memory recorder.
func BuildMetricsSink(ctx context.Context, cfg config.ObservabilityMetricsConfig, logger *slog.Logger) MetricsSink {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.IsEnabled() {
		client, err := statsd.NewClient(ctx, statsd.Config{
			Enabled: true,
			Address: cfg.StatsdAddress,
			Prefix:  cfg.Prefix,
			Logger:  logger,
		})
		if err == nil {
			logger.Info("statsd metrics enabled", "address", cfg.StatsdAddress)
			return MetricsSink{Sink: client, close: client.Close}
		}
		logger.Error("failed to initialise statsd client", "error", err)
	}
	rec := &statsd.Recorder{}
	return MetricsSink{Sink: rec, Recorder: rec}
}
