package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/stalkcentral/config"
	"github.com/target/stalkcentral/internal/observability/statsd"
)

func TestBuildMetricsSink_DisabledUsesRecorder(t *testing.T) {
	sink := BuildMetricsSink(context.Background(), config.ObservabilityMetricsConfig{}, discardLogger())
	require.NotNil(t, sink.Recorder)
	sink.Count("sign_in.attempt", 1, nil)
	assert.Equal(t, int64(1), sink.Recorder.Total("sign_in.attempt"))
	require.NoError(t, sink.Close())
}

func TestBuildMetricsSink_Enabled(t *testing.T) {
	sink := BuildMetricsSink(context.Background(), config.ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: "127.0.0.1:8125",
		Prefix:        "stalkcentral",
	}, discardLogger())
	assert.Nil(t, sink.Recorder)
	assert.IsType(t, &statsd.Client{}, sink.Sink)
	require.NoError(t, sink.Close())
}

func TestBuildMetricsSink_DialFailureFallsBack(t *testing.T) {
	sink := BuildMetricsSink(context.Background(), config.ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: "127.0.0.1:not-a-port",
	}, discardLogger())
	require.NotNil(t, sink.Recorder)
}
