package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelgen/internal/adapters/storage/localfs"
	"reelgen/internal/httpapi/handlers"
	"reelgen/internal/httpkit"
	"reelgen/internal/models"
	"reelgen/internal/pkg/logger"
	"reelgen/internal/pkg/middleware"
	"reelgen/internal/repositories"
	"reelgen/internal/worker/processor"
)

const videoBytes = "fake mp4 payload"

type fakeGenerator struct {
	t   *testing.T
	dir string
	ok  bool

	mu    sync.Mutex
	reqs  []processor.Request
	paths []string
}

func (g *fakeGenerator) Generate(_ context.Context, req processor.Request) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	if !g.ok {
		return "", false
	}
	f, err := os.CreateTemp(g.dir, "out-*.mp4")
	require.NoError(g.t, err)
	_, err = f.WriteString(videoBytes)
	require.NoError(g.t, err)
	require.NoError(g.t, f.Close())
	g.paths = append(g.paths, f.Name())
	return f.Name(), true
}

type apiFixture struct {
	srv       http.Handler
	gen       *fakeGenerator
	videos    *repositories.MemoryVideos
	storeRoot string
}

func newFixture(t *testing.T, ok bool, rateLimit int) *apiFixture {
	t.Helper()
	gen := &fakeGenerator{t: t, dir: t.TempDir(), ok: ok}
	root := t.TempDir()
	videos := repositories.NewMemoryVideos()

	h := handlers.New(handlers.Deps{
		Generator:        gen,
		Storage:          localfs.New(root),
		Videos:           videos,
		EngineExecutable: "sh",
		Version:          "test",
		Log:              logger.Discard(),
	})
	srv := NewRouter(Deps{
		Handlers:          h,
		Log:               logger.Discard(),
		GenerateRateLimit: rateLimit,
		RequestTimeout:    0,
	})
	return &apiFixture{srv: srv, gen: gen, videos: videos, storeRoot: root}
}

func (f *apiFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env httpkit.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "reelgen", body["service"])
	assert.Nil(t, body["checks"])
}

func TestHealthDeep(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodGet, "/health?deep=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["engine"]["status"])
	assert.Equal(t, "ok", body.Checks["storage"]["status"])
	assert.Equal(t, "localfs", body.Checks["storage"]["provider"])
	assert.Equal(t, "skipped", body.Checks["database"]["status"])
}

func TestHealthDeepMissingEngine(t *testing.T) {
	h := handlers.New(handlers.Deps{
		Storage:          localfs.New(t.TempDir()),
		Videos:           repositories.NewMemoryVideos(),
		EngineExecutable: filepath.Join(t.TempDir(), "no-such-engine"),
		Log:              logger.Discard(),
	})
	srv := NewRouter(Deps{Handlers: h, Log: logger.Discard()})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?deep=true", nil))

	var body struct {
		Status string                    `json:"status"`
		Checks map[string]map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "error", body.Checks["engine"]["status"])
}

func TestGenerateStreamsAndRemovesOutput(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodGet, "/videos/generate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="generated.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, videoBytes, rec.Body.String())

	require.Len(t, f.gen.reqs, 1)
	assert.Nil(t, f.gen.reqs[0].Plan)
	assert.Empty(t, f.gen.reqs[0].OutputPath)

	require.Len(t, f.gen.paths, 1)
	assert.NoFileExists(t, f.gen.paths[0])
}

func TestGenerateFailure(t *testing.T) {
	f := newFixture(t, false, 0)

	rec := f.do(http.MethodGet, "/videos/generate", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Video generation failed\n", rec.Body.String())
}

func TestGenerateRateLimited(t *testing.T) {
	f := newFixture(t, true, 1)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/videos/generate", "").Code)

	rec := f.do(http.MethodGet, "/videos/generate", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec))
	assert.Len(t, f.gen.reqs, 1)

	// Non-generation routes are not limited.
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/videos", "").Code)
}

func TestVideoLifecycle(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodPost, "/videos", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Video models.Video `json:"video"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	v := created.Video
	assert.True(t, strings.HasPrefix(v.ID, "vid_"))
	assert.Equal(t, "videos/"+v.ID+".mp4", v.ObjectKey)
	assert.Equal(t, "localfs", v.Provider)
	assert.Equal(t, int64(len(videoBytes)), v.SizeBytes)
	assert.Equal(t, f.gen.reqs[0].JobID, v.JobID)

	stored := filepath.Join(f.storeRoot, "videos", v.ID+".mp4")
	assert.FileExists(t, stored)
	require.Len(t, f.gen.paths, 1)
	assert.NoFileExists(t, f.gen.paths[0])

	rec = f.do(http.MethodGet, "/videos", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Videos []models.Video `json:"videos"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Videos, 1)
	assert.Equal(t, v.ID, list.Videos[0].ID)

	rec = f.do(http.MethodGet, "/videos/"+v.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/videos/"+v.ID+"/content", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, videoBytes, rec.Body.String())
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))

	rec = f.do(http.MethodGet, "/videos/"+v.ID+"/url", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var u struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Equal(t, "http://example.com/videos/"+v.ID+"/content", u.URL)

	rec = f.do(http.MethodDelete, "/videos/"+v.ID, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoFileExists(t, stored)

	rec = f.do(http.MethodGet, "/videos/"+v.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec))

	rec = f.do(http.MethodDelete, "/videos/"+v.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateVideoWithPlan(t *testing.T) {
	f := newFixture(t, true, 0)

	plan := `{"clips":[{"blocks":[{"type":"text","text":"hello"},{"type":"image","image_url":"https://example.com/a.png"}]}]}`
	rec := f.do(http.MethodPost, "/videos", plan)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, f.gen.reqs, 1)
	got := f.gen.reqs[0].Plan
	require.NotNil(t, got)
	require.Len(t, got.Clips, 1)
	assert.Equal(t, "hello", got.Clips[0].Blocks[0].Text)
	assert.Equal(t, "https://example.com/a.png", got.Clips[0].Blocks[1].ImageURL)
}

func TestCreateVideoRejectsBadPlan(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"clips":`, "BAD_REQUEST"},
		{"unknown field", `{"clips":[],"extra":1}`, "BAD_REQUEST"},
		{"no clips", `{"clips":[]}`, "VALIDATION_ERROR"},
		{"bad image url", `{"clips":[{"blocks":[{"type":"image","image_url":"ftp://x/a.png"}]}]}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true, 0)
			rec := f.do(http.MethodPost, "/videos", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec))
			assert.Empty(t, f.gen.reqs)
		})
	}
}

func TestCreateVideoGenerationFailure(t *testing.T) {
	f := newFixture(t, false, 0)

	rec := f.do(http.MethodPost, "/videos", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "RENDER_FAILED", decodeError(t, rec))

	all, err := f.videos.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListVideosLimit(t *testing.T) {
	f := newFixture(t, true, 0)

	for _, q := range []string{"0", "-1", "abc", "201"} {
		rec := f.do(http.MethodGet, "/videos?limit="+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/videos?limit=5", "").Code)
}

func TestStreamMissingVideo(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodGet, "/videos/vid_missing/content", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, true, 0)

	rec := f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
