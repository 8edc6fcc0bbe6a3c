package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/0xmhha/sdlogger/pkg/controller"
	"github.com/0xmhha/sdlogger/pkg/hal"
	"github.com/0xmhha/sdlogger/pkg/journal"
	"github.com/0xmhha/sdlogger/pkg/logger"
)

// fakeController records presses and serves a fixed status.
type fakeController struct {
	mu      sync.Mutex
	presses int
	status  controller.Status
}

func (f *fakeController) Run(ctx context.Context) error { <-ctx.Done(); return nil }
func (f *fakeController) HandleEdge(e hal.Edge)         {}
func (f *fakeController) Wake()                         {}
func (f *fakeController) Enabled() bool                 { return f.Status().LoggingEnabled }

func (f *fakeController) Press() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presses++
	f.status.PendingPresses++
}

func (f *fakeController) Status() controller.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) Presses() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presses
}

func newTestServer(t *testing.T, cfg Config, deps Deps) Server {
	t.Helper()
	srv, err := New(cfg, deps, logger.Noop())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresController(t *testing.T) {
	_, err := New(Config{}, Deps{}, nil)
	assert.ErrorIs(t, err, ErrNoController)
}

func TestStatus(t *testing.T) {
	ctl := &fakeController{status: controller.Status{
		State:          controller.Logging,
		LoggingEnabled: true,
		SessionIndex:   6,
		File:           "data_6.csv",
		Cycle:          42,
		Medium:         "inserted",
	}}
	srv := newTestServer(t, Config{}, Deps{Controller: ctl})

	rec := do(t, srv.Handler(), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"state":"logging"`)

	var st controller.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, controller.Logging, st.State)
	assert.Equal(t, uint32(6), st.SessionIndex)
	assert.Equal(t, uint32(42), st.Cycle)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, Config{}, Deps{Controller: &fakeController{}})

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestToggle(t *testing.T) {
	ctl := &fakeController{}
	srv := newTestServer(t, Config{}, Deps{Controller: ctl})

	rec := do(t, srv.Handler(), http.MethodPost, "/toggle")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, ctl.Presses())

	var resp toggleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Accepted)
	assert.Equal(t, 1, resp.Pending)

	// GET is not a press.
	rec = do(t, srv.Handler(), http.MethodGet, "/toggle")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, ctl.Presses())
}

func TestToggleRateLimit(t *testing.T) {
	ctl := &fakeController{}
	srv := newTestServer(t, Config{ToggleRate: 2}, Deps{Controller: ctl})

	for i := 0; i < 2; i++ {
		rec := do(t, srv.Handler(), http.MethodPost, "/toggle")
		require.Equal(t, http.StatusAccepted, rec.Code, "request %d", i)
	}

	rec := do(t, srv.Handler(), http.MethodPost, "/toggle")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, 2, ctl.Presses(), "limited request must not press")
}

func TestSessions(t *testing.T) {
	j, err := journal.Open(journal.Config{DBPath: filepath.Join(t.TempDir(), "state.db")}, logger.Noop())
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Begin(5, "data_5.csv", journal.CausePress))
	require.NoError(t, j.End(5, journal.EndStopped, 10, 570))
	require.NoError(t, j.Begin(6, "data_6.csv", journal.CausePress))

	srv := newTestServer(t, Config{}, Deps{Controller: &fakeController{}, Sessions: j})

	rec := do(t, srv.Handler(), http.MethodGet, "/sessions")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []*journal.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, journal.EndStopped, entries[0].EndReason)
	assert.True(t, entries[1].Open())

	rec = do(t, srv.Handler(), http.MethodGet, "/sessions/5")
	require.Equal(t, http.StatusOK, rec.Code)
	var entry journal.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, uint64(10), entry.Records)

	rec = do(t, srv.Handler(), http.MethodGet, "/sessions/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, srv.Handler(), http.MethodGet, "/sessions/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionsWithoutJournal(t *testing.T) {
	srv := newTestServer(t, Config{}, Deps{Controller: &fakeController{}})

	rec := do(t, srv.Handler(), http.MethodGet, "/sessions")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "journal_disabled")
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, Config{}, Deps{Controller: &fakeController{}})

	rec := do(t, srv.Handler(), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "sdlogger_"), "metrics output lacks sdlogger series")
}

func TestRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := newTestServer(t, Config{Listen: "127.0.0.1:0"}, Deps{Controller: &fakeController{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + srv.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunWithoutAddress(t *testing.T) {
	srv := newTestServer(t, Config{}, Deps{Controller: &fakeController{}})
	assert.ErrorIs(t, srv.Run(context.Background()), ErrNoListenAddress)
}
