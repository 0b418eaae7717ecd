package api_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/api"
	"github.com/book-expert/voice-studio/internal/audio"
	"github.com/book-expert/voice-studio/internal/history"
	"github.com/book-expert/voice-studio/internal/objectstore"
	"github.com/book-expert/voice-studio/internal/studio"
	"github.com/book-expert/voice-studio/internal/template"
	"github.com/book-expert/voice-studio/internal/tts"
	"github.com/book-expert/voice-studio/internal/voice"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var silencePayload = base64.StdEncoding.EncodeToString(make([]byte, 16))

type stubGenerator struct {
	payload string
	err     error
	last    voice.GenerationParams
}

func (s *stubGenerator) Generate(_ context.Context, params voice.GenerationParams) (string, error) {
	s.last = params

	return s.payload, s.err
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newRouter(t *testing.T, generator *stubGenerator) (*gin.Engine, *history.Store) {
	t.Helper()

	log, err := logger.New(t.TempDir(), "api-test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.Close() })

	objects, err := objectstore.NewDirStore(t.TempDir())
	require.NoError(t, err)

	hist := history.New(objects, log)
	pipeline := studio.New(generator, objects, hist, studio.Options{}, log)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	handler := api.NewHandler(pipeline, api.Options{RadioName: "Radio Sur", City: "Valdivia", Metrics: metrics}, log)

	return handler.Router(), hist
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	return recorder
}

func decode[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var out T

	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &out))

	return out
}

type item struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoiceName string `json:"voice_name"`
	Style     string `json:"style"`
	FileName  string `json:"file_name"`
	AudioURL  string `json:"audio_url"`
}

func TestCatalogRoutes(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t, &stubGenerator{})

	voices := decode[[]voice.Option](t, do(t, router, http.MethodGet, "/voices", nil))
	assert.Len(t, voices, len(voice.Catalog()))

	women := decode[[]voice.Option](t, do(t, router, http.MethodGet, "/voices?gender=Mujer", nil))
	assert.Len(t, women, 5)

	styles := decode[[]voice.StyleOption](t, do(t, router, http.MethodGet, "/styles", nil))
	assert.Len(t, styles, 5)

	all := decode[[]template.Template](t, do(t, router, http.MethodGet, "/templates", nil))
	assert.Len(t, all, len(template.All()))

	jingles := decode[[]template.Template](t, do(t, router, http.MethodGet, "/templates?category=jingle", nil))
	assert.Equal(t, template.ByCategory(template.Jingle), jingles)

	metrics := do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
}

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t, &stubGenerator{})

	recorder := do(t, router, http.MethodPost, "/templates/spot_1/render", map[string]any{
		"variables": map[string]string{"evento": "la Fonda"},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decode[map[string]any](t, recorder)
	assert.Equal(t, "No te pierdas la Fonda este {fecha} en {lugar}. ¡Solo en Radio Sur!", body["text"])
	assert.ElementsMatch(t, []any{"fecha", "lugar"}, body["unresolved"])

	missing := do(t, router, http.MethodPost, "/templates/nope/render", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGenerateAndDownload(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{payload: silencePayload}
	router, hist := newRouter(t, generator)

	recorder := do(t, router, http.MethodPost, "/generate", map[string]any{
		"text":     "Hola Valdivia",
		"voice_id": "f2",
		"style":    "alegre",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	created := decode[item](t, recorder)
	assert.Equal(t, "Hola Valdivia", created.Text)
	assert.Equal(t, voice.DisplayName(voice.Sofia), created.VoiceName)
	assert.Equal(t, "alegre", created.Style)
	assert.Equal(t, "/history/"+created.ID+"/audio", created.AudioURL)
	assert.InDelta(t, voice.DefaultSpeed, generator.last.Speed, 0.0001)
	assert.Equal(t, 1, hist.Len())

	listed := decode[[]item](t, do(t, router, http.MethodGet, "/history", nil))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	download := do(t, router, http.MethodGet, created.AudioURL, nil)
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "audio/wav", download.Header().Get("Content-Type"))
	assert.Contains(t, download.Header().Get("Content-Disposition"), created.FileName)
	assert.Len(t, download.Body.Bytes(), audio.WAVHeaderSize+16)

	deleted := do(t, router, http.MethodDelete, "/history/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, deleted.Code)
	assert.Zero(t, hist.Len())

	gone := do(t, router, http.MethodGet, created.AudioURL, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestGenerateTemplateRoute(t *testing.T) {
	t.Parallel()

	generator := &stubGenerator{payload: silencePayload}
	router, _ := newRouter(t, generator)

	recorder := do(t, router, http.MethodPost, "/templates/id_3/generate", map[string]any{"voice_id": "m3"})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	created := decode[item](t, recorder)
	assert.Equal(t, "Desde Valdivia, Radio Sur conecta corazones y comunidades.", created.Text)
	assert.Equal(t, voice.Lucas, generator.last.VoiceID)
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		generator  *stubGenerator
		body       map[string]any
		wantStatus int
		wantError  string
	}{
		{
			name:       "empty text",
			generator:  &stubGenerator{payload: silencePayload},
			body:       map[string]any{"text": "  "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "speed out of range",
			generator:  &stubGenerator{payload: silencePayload},
			body:       map[string]any{"text": "Hola", "speed": 2.5},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing key",
			generator:  &stubGenerator{err: tts.ErrMissingAPIKey},
			body:       map[string]any{"text": "Hola"},
			wantStatus: http.StatusBadGateway,
			wantError:  studio.MsgMissingAPIKey,
		},
		{
			name:       "service error",
			generator:  &stubGenerator{err: tts.ErrService},
			body:       map[string]any{"text": "Hola"},
			wantStatus: http.StatusBadGateway,
			wantError:  studio.MsgServiceError,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			router, hist := newRouter(t, testCase.generator)

			recorder := do(t, router, http.MethodPost, "/generate", testCase.body)
			assert.Equal(t, testCase.wantStatus, recorder.Code)
			assert.Zero(t, hist.Len())

			if testCase.wantError != "" {
				body := decode[map[string]string](t, recorder)
				assert.Equal(t, testCase.wantError, body["error"])
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router, _ := newRouter(t, &stubGenerator{})

	body := decode[map[string]any](t, do(t, router, http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["loading"])
}
