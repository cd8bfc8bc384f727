package metrics

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopSink(t *testing.T) {
	sink := &NoopSink{}
	assert.NoError(t, sink.Send(context.Background(), &Metrics{}))
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(slog.New(slog.NewTextHandler(io.Discard, nil)))
	m := &Metrics{
		Values: []MetricValue{
			{Name: BatchProcessingTimeMetricName, Value: 12.5, Type: GAUGE},
			{Name: BatchLogicalRowsCountMetricName, Value: 100, Type: COUNTER},
			{Name: "bogus", Value: 1, Type: UNKNOWN},
		},
	}
	// Invalid metric types are logged, not returned as errors.
	assert.NoError(t, sink.Send(context.Background(), m))
}
