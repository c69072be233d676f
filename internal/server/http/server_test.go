package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/robocmd/pkg/command"
	"github.com/autopeer-io/robocmd/pkg/log"
	"github.com/autopeer-io/robocmd/pkg/options"
)

type arm struct{}

func (arm) Name() string { return "arm" }

func newTestServer(t *testing.T) (*Server, *command.Scheduler) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sched := command.NewScheduler(command.WithLogger(log.NewNopLogger()), command.WithRegisterer(reg))
	return NewServer(options.NewHttpOptions(), sched, reg), sched
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbes(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/readyz").Code)

	s.SetReady(true)
	assert.Equal(t, http.StatusOK, get(t, s, "/readyz").Code)
}

func TestCommandsAndMetrics(t *testing.T) {
	s, sched := newTestServer(t)

	cmd, err := command.UntilWithin(0, func() bool { return false })
	require.NoError(t, err)
	require.NoError(t, sched.Submit(cmd))
	cancel, err := command.Cancel(arm{})
	require.NoError(t, err)
	require.NoError(t, sched.Submit(cancel))
	sched.Step()

	rec := get(t, s, "/commands")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var infos []command.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, command.StateRunning, infos[0].State)
	assert.True(t, infos[0].Interruptible)

	metrics := get(t, s, "/metrics").Body.String()
	assert.True(t, strings.Contains(metrics, "robocmd_commands_submitted_total 2"), metrics)
}

func TestHandleJSON(t *testing.T) {
	s, _ := newTestServer(t)
	s.HandleJSON("/robot", func() any { return map[string]float64{"distance": 1.5} })

	assert.JSONEq(t, `{"distance":1.5}`, get(t, s, "/robot").Body.String())
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/robot", nil))
		return rec.Code
	}())
}
