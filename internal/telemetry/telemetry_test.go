package telemetry_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ExposesGenerationMetrics(t *testing.T) {
	t.Parallel()

	log, err := logger.New(t.TempDir(), "telemetry-test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	provider, err := telemetry.Setup("voice-studio-test", log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := telemetry.NewMetrics(provider.Meter())
	require.NoError(t, err)

	metrics.RecordGeneration(context.Background(), telemetry.OutcomeSuccess, "natural", 250*time.Millisecond, 48044)
	metrics.RecordGeneration(context.Background(), telemetry.OutcomeNoAudio, "alegre", time.Second, 0)

	recorder := httptest.NewRecorder()
	provider.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "studio_generations")
	assert.Contains(t, string(body), `outcome="success"`)
	assert.Contains(t, string(body), `outcome="no_audio"`)
	assert.Contains(t, string(body), "studio_audio_bytes")
}

func TestNoopMetrics(t *testing.T) {
	t.Parallel()

	metrics := telemetry.NoopMetrics()
	require.NotNil(t, metrics)

	assert.NotPanics(t, func() {
		metrics.RecordGeneration(context.Background(), telemetry.OutcomeSuccess, "natural", time.Millisecond, 10)
	})
}
