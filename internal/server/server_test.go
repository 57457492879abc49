package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nextstep-backend/internal/analytics"
	"nextstep-backend/internal/db"
	"nextstep-backend/internal/plantoken"
	"nextstep-backend/internal/tasks"
)

type stubGateway struct {
	steps []string
}

func (s stubGateway) DecomposeTask(context.Context, string) ([]string, error) {
	return s.steps, nil
}

func (s stubGateway) PhraseSubtask(_ context.Context, subtask, size string) (string, error) {
	return size + ": " + subtask, nil
}

func newTestServer(t *testing.T, staticDir string, signer *plantoken.Signer) (http.Handler, *analytics.Recorder) {
	t.Helper()

	d, err := db.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	rec := analytics.NewRecorder(d, db.DriverSQLite, nil)
	engine := tasks.NewEngine(
		stubGateway{steps: []string{"open garage", "sort tools", "sweep"}},
		rec, nil,
		tasks.WithClock(func() time.Time { return time.Date(2026, 1, 2, 20, 0, 0, 0, time.Local) }),
	)
	if signer == nil {
		signer = plantoken.New("", false)
	}

	return New(Deps{Engine: engine, Signer: signer, History: rec, StaticDir: staticDir}), rec
}

func do(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)

	w := do(srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestSuggestThenFeedbackFlow(t *testing.T) {
	srv, rec := newTestServer(t, "", plantoken.New("s3cret", true))

	w := do(srv, http.MethodPost, "/api/suggest", map[string]string{"task_text": "clean the garage", "task_type": "chores"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var first map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "small", first["size"])
	assert.Equal(t, float64(0), first["current_index"])
	require.NotEmpty(t, first["plan_token"])

	// client round-trips the whole plan
	first["feedback"] = "done"
	first["current_step"] = first["original_subtask"]
	w = do(srv, http.MethodPost, "/api/feedback", first)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var second map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, float64(1), second["current_index"])
	assert.Equal(t, "sort tools", second["original_subtask"])

	// tampering with the index is caught
	second["feedback"] = "done"
	second["current_index"] = 2
	w = do(srv, http.MethodPost, "/api/feedback", second)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	history, err := rec.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, analytics.OutcomeSuccess, history[0].Outcome)
	assert.Equal(t, analytics.OutcomeSuggested, history[1].Outcome)
	assert.Equal(t, analytics.Evening, history[1].TimeOfDay)

	w = do(srv, http.MethodGet, "/api/history?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist []analytics.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Len(t, hist, 1)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	w := do(srv, http.MethodDelete, "/api/suggest", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/suggest", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticFallback(t *testing.T) {
	srv, _ := newTestServer(t, "", nil)
	w := do(srv, http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "Backend is running")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<div id=root></div>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	srv, _ = newTestServer(t, dir, nil)

	w = do(srv, http.MethodGet, "/assets/app.js", nil)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = do(srv, http.MethodGet, "/tasks/42", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<div id=root></div>", w.Body.String())
}
