package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ari/claude-monitor/internal/config"
	"github.com/ari/claude-monitor/internal/monitor"
	"github.com/ari/claude-monitor/internal/tracker"
)

func newTestRouter(t *testing.T) (*monitor.State, http.Handler) {
	t.Helper()
	cfg := &config.Config{
		ClaudeDir:   t.TempDir(),
		TokenLimit:  tracker.DefaultTokenLimit,
		WindowHours: tracker.RollingWindowHours,
	}

	now := time.Now()
	projectDir := filepath.Join(cfg.ProjectsDir(), "-home-user-demo")
	require.NoError(t, os.MkdirAll(projectDir, 0755))
	line := fmt.Sprintf(
		`{"type":"assistant","timestamp":%q,"message":{"usage":{"input_tokens":1000,"output_tokens":200,"cache_creation_input_tokens":50,"cache_read_input_tokens":25}}}`,
		now.Add(-time.Minute).UTC().Format(time.RFC3339))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "sess-1.jsonl"), []byte(line+"\n"), 0644))

	state := monitor.NewState(cfg, zap.NewNop())
	require.NoError(t, state.Refresh())
	return state, NewRouter(state, zap.NewNop())
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStatsEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	rec := get(t, router, "/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats struct {
		TotalUsage struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"total_usage"`
		Budget struct {
			Limit       int64   `json:"limit"`
			Used        int64   `json:"used"`
			Remaining   int64   `json:"remaining"`
			Percentage  float64 `json:"percentage"`
			WindowHours int     `json:"window_hours"`
		} `json:"budget"`
		ActiveSessions int `json:"active_sessions"`
		TotalMessages  int `json:"total_messages"`
		Projects       []struct {
			Path string `json:"path"`
		} `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))

	assert.Equal(t, int64(1000), stats.TotalUsage.InputTokens)
	assert.Equal(t, int64(200), stats.TotalUsage.OutputTokens)
	// Billable excludes the 25 cache-read tokens
	assert.Equal(t, int64(1250), stats.Budget.Used)
	assert.Equal(t, tracker.DefaultTokenLimit, stats.Budget.Limit)
	assert.Equal(t, 1, stats.ActiveSessions)
	require.Len(t, stats.Projects, 1)
	assert.Equal(t, "/home/user/demo", stats.Projects[0].Path)
}

func TestSessionsEndpoint(t *testing.T) {
	_, router := newTestRouter(t)

	rec := get(t, router, "/api/sessions")
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []struct {
		SessionID    string `json:"session_id"`
		ProjectPath  string `json:"project_path"`
		MessageCount int    `json:"message_count"`
		IsAgent      bool   `json:"is_agent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "sess-1", sessions[0].SessionID)
	assert.False(t, sessions[0].IsAgent)
}

func TestSessionsEndpoint_EmptyIsArray(t *testing.T) {
	cfg := &config.Config{ClaudeDir: t.TempDir(), TokenLimit: 1, WindowHours: 5}
	state := monitor.NewState(cfg, zap.NewNop())
	require.NoError(t, state.Refresh())
	router := NewRouter(state, zap.NewNop())

	rec := get(t, router, "/api/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestRefreshEndpoint(t *testing.T) {
	state, router := newTestRouter(t)

	before := state.LastRefresh()
	rec := get(t, router, "/api/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Refreshed", rec.Body.String())
	assert.True(t, state.LastRefresh().After(before) || state.LastRefresh().Equal(before))
}

func TestHistoryEndpoint(t *testing.T) {
	state, router := newTestRouter(t)

	history := `{"display":"hello","timestamp":1756200000000,"project":"/p","sessionId":"s"}` + "\n"
	require.NoError(t, os.WriteFile(state.Config().HistoryFile(), []byte(history), 0644))
	require.NoError(t, state.Refresh())

	rec := get(t, router, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		Display string `json:"display"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Display)
}

func TestIndexAndPartials(t *testing.T) {
	_, router := newTestRouter(t)

	rec := get(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Claude Monitor")
	assert.Contains(t, body, "/home/user/demo")

	for _, path := range []string{"/partials/budget", "/partials/stats", "/partials/sessions"} {
		rec := get(t, router, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html", path)
	}

	rec = get(t, router, "/partials/budget")
	assert.Contains(t, rec.Body.String(), "5-Hour Rolling Budget")
}
