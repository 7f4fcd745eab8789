package observability

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestPrometheusReader_WritesTextfile(t *testing.T) {
	t.Parallel()

	exporter, registry, err := newPrometheusReader()
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	rm, err := NewRunMetrics(mp.Meter("test"))
	require.NoError(t, err)

	rm.AddChangelist(context.Background(), false)

	path := filepath.Join(t.TempDir(), "defectmap.prom")
	require.NoError(t, writeTextfile(path, registry))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), "defectmap_changelists")
	assert.Contains(t, string(data), "target_info")
}

func TestWriteTextfile_BadPath(t *testing.T) {
	t.Parallel()

	_, registry, err := newPrometheusReader()
	require.NoError(t, err)

	err = writeTextfile(filepath.Join(t.TempDir(), "missing", "defectmap.prom"), registry)
	require.Error(t, err)
}
