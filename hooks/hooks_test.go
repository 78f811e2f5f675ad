package hooks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Skryldev/plotting/core"
)

func TestLoggingHook_LogsErrorsAtErrorLevel(t *testing.T) {
	obsCore, logs := observer.New(zap.DebugLevel)
	hook := NewLoggingHook(NewZapLogger(zap.New(obsCore)))

	img := core.NewEncodedImage([]byte("abc"), core.FormatPNG)
	hook.BeforeStep(context.Background(), "gzip", img)
	hook.AfterStep(context.Background(), "gzip", nil, time.Millisecond, errors.New("boom"))

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "pipeline.step.start", entries[0].Message)
	assert.Equal(t, "pipeline.step.error", entries[1].Message)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger("loud", false)
	require.Error(t, err)

	l, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, l.Zap())
}

func TestInMemoryMetrics_Snapshot(t *testing.T) {
	m := NewInMemoryMetrics()
	m.RecordProcessingTime("render", 2*time.Second)
	m.RecordProcessingTime("render", time.Second)
	m.RecordError("render", "render")
	m.RecordThroughput(10)
	m.RecordCacheLookup("default", false)
	m.RecordCacheLookup("default", true)
	m.RecordCacheLookup("default", true)

	snap := m.Snapshot()
	assert.Equal(t, int64(3000), snap.StepDurationsMs["render"])
	assert.Equal(t, int64(2), snap.StepCalls["render"])
	assert.Equal(t, int64(1), snap.StepErrors["render"])
	assert.Equal(t, int64(10), snap.TotalThroughputB)
	assert.Equal(t, int64(2), snap.CacheHits["default"])
	assert.Equal(t, int64(1), snap.CacheMisses["default"])
}

func TestLatencyMetrics_Quantiles(t *testing.T) {
	m := NewLatencyMetrics(0.01)
	for i := 1; i <= 100; i++ {
		m.RecordProcessingTime("render", time.Duration(i)*time.Millisecond)
	}

	st, err := m.Stats("render")
	require.NoError(t, err)
	assert.Equal(t, int64(100), st.Count)
	assert.InDelta(t, 50, st.P50, 2)
	assert.InDelta(t, 100, st.Max, 2)

	_, err = m.Stats("missing")
	assert.Error(t, err)

	require.Len(t, m.AllStats(), 1)
	assert.Equal(t, int64(100), m.Snapshot().StepCalls["render"])
}

func TestMetricsHook_FeedsCollector(t *testing.T) {
	m := NewInMemoryMetrics()
	hook := NewMetricsHook(m)
	img := core.NewEncodedImage([]byte("12345"), core.FormatPNG)

	hook.AfterStep(context.Background(), "stamp", img, time.Millisecond, nil)
	hook.AfterStep(context.Background(), "stamp", nil, time.Millisecond, errors.New("x"))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.StepCalls["stamp"])
	assert.Equal(t, int64(1), snap.StepErrors["stamp"])
	assert.Equal(t, int64(5), snap.TotalThroughputB)
}
