package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekly_report_bot/scheduler"
	"weekly_report_bot/workflow"
)

type fixedGen struct{ content string }

func (g fixedGen) Generate(_ context.Context) (string, error) { return g.content, nil }

type noopSink struct{}

func (noopSink) Deliver(_ context.Context, _ string) error { return nil }

func newTestServer(t *testing.T) (*Server, *workflow.Machine, *scheduler.Poller) {
	t.Helper()
	machine := workflow.NewMachine(fixedGen{content: "# 周报\n\n**要点**"}, noopSink{}, "key", true, nil)
	window := scheduler.Window{Weekday: time.Friday, Hour: 16, Minute: 30}
	poller := scheduler.NewPoller(window, machine, false, nil)
	srv, err := New(machine, poller, nil)
	require.NoError(t, err)
	return srv, machine, poller
}

func TestStatusEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statusResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, workflow.StatusIdle, resp.Status)
	assert.False(t, resp.AutoTrigger)
	assert.True(t, resp.RequireApproval)
}

func TestRunAndApproveFlow(t *testing.T) {
	srv, machine, _ := newTestServer(t)
	h := srv.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/run", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool { return machine.Status() == workflow.StatusReviewing },
		2*time.Second, 2*time.Millisecond)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/approve", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool { return machine.Status() == workflow.StatusCompleted },
		2*time.Second, 2*time.Millisecond)
}

func TestRunRejectsGet(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSettingsToggle(t *testing.T) {
	srv, machine, poller := newTestServer(t)
	h := srv.Routes()

	body := bytes.NewBufferString(`{"auto_trigger": true, "require_approval": false}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/settings", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, poller.AutoTrigger())
	assert.False(t, machine.RequireApproval())

	// a partial update leaves the other setting alone
	body = bytes.NewBufferString(`{"auto_trigger": false}`)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/settings", body))
	assert.False(t, poller.AutoTrigger())
	assert.False(t, machine.RequireApproval())
}

func TestPreviewRendersMarkdown(t *testing.T) {
	srv, machine, _ := newTestServer(t)
	h := srv.Routes()

	// no draft yet
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	machine.Start()
	require.Eventually(t, func() bool { return machine.Status() == workflow.StatusReviewing },
		2*time.Second, 2*time.Millisecond)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preview", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "<strong>要点</strong>")
}

func TestStaticIndexServed(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Weekly Report Bot")
}
