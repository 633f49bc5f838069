package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ari/claude-monitor/internal/monitor"
	"github.com/ari/claude-monitor/internal/tracker"
	"github.com/ari/claude-monitor/internal/web"
)

const htmlContentType = "text/html; charset=utf-8"

// historyLimit caps the /api/history response; the file grows without bound.
const historyLimit = 100

// Index serves the full dashboard page.
func Index(state *monitor.State, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		html, err := web.RenderIndex(state.Stats(), state.ActiveSessions())
		if err != nil {
			log.Error("failed to render index", zap.Error(err))
			c.String(http.StatusInternalServerError, "render failed")
			return
		}
		c.Data(http.StatusOK, htmlContentType, []byte(html))
	}
}

// Stats returns the current aggregate snapshot as JSON.
func Stats(state *monitor.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, state.Stats())
	}
}

// Sessions returns active sessions, most recent activity first.
func Sessions(state *monitor.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions := state.ActiveSessions()
		if sessions == nil {
			sessions = []tracker.SessionData{}
		}
		c.JSON(http.StatusOK, sessions)
	}
}

// History returns recent prompt history entries.
func History(state *monitor.State) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := state.History(historyLimit)
		if entries == nil {
			entries = []tracker.HistoryEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

// Refresh forces a full re-scan of the transcript directory.
func Refresh(state *monitor.State, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := state.Refresh(); err != nil {
			log.Error("refresh failed", zap.Error(err))
			c.String(http.StatusInternalServerError, "Refresh failed")
			return
		}
		c.String(http.StatusOK, "Refreshed")
	}
}

// BudgetPartial serves the rolling-budget HTMX fragment.
func BudgetPartial(state *monitor.State, log *zap.Logger) gin.HandlerFunc {
	return partial(log, func() (string, error) {
		return web.RenderBudget(state.Stats())
	})
}

// StatsPartial serves the stat-cards HTMX fragment.
func StatsPartial(state *monitor.State, log *zap.Logger) gin.HandlerFunc {
	return partial(log, func() (string, error) {
		return web.RenderStatsCards(state.Stats())
	})
}

// SessionsPartial serves the active-sessions HTMX fragment.
func SessionsPartial(state *monitor.State, log *zap.Logger) gin.HandlerFunc {
	return partial(log, func() (string, error) {
		return web.RenderSessions(state.ActiveSessions())
	})
}

func partial(log *zap.Logger, render func() (string, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		html, err := render()
		if err != nil {
			log.Error("failed to render partial", zap.Error(err))
			c.String(http.StatusInternalServerError, "render failed")
			return
		}
		c.Data(http.StatusOK, htmlContentType, []byte(html))
	}
}
