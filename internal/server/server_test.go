package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/gigaspace-pagegen/internal/generator"
	"github.com/JakeFAU/gigaspace-pagegen/internal/metrics"
)

type fakeProgress struct {
	state generator.State
	snap  generator.Snapshot
}

func (f fakeProgress) State() generator.State {
	return f.state
}

func (f fakeProgress) Progress() generator.Snapshot {
	return f.snap
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProgress(t *testing.T) {
	t.Parallel()

	s := New(fakeProgress{
		state: generator.StateGenerating,
		snap:  generator.Snapshot{Total: 10, Processed: 4, Successful: 3, Missing: 1, TotalPages: 8, Categories: []string{"anime"}},
	}, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "generating", body["state"])
	require.EqualValues(t, 4, body["processed"])
	require.EqualValues(t, 10, body["total"])
}

func TestProgressWithoutRun(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	collectors, err := metrics.New(nil)
	require.NoError(t, err)
	collectors.ObserveCacheHit()

	s := New(nil, collectors.Handler(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "pagegen_cache_hits_total 1")

	noMetrics := New(nil, nil, nil)
	rec = httptest.NewRecorder()
	noMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	t.Parallel()

	s := New(nil, nil, nil)
	addr, err := s.Start("127.0.0.1:0")
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/healthz")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(body), "ok")
	client.CloseIdleConnections()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, New(nil, nil, nil).Shutdown(ctx))
}
