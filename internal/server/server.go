package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ari/claude-monitor/internal/monitor"
)

// NewRouter builds the dashboard router. No default gin logger: request
// logging goes through zap like everything else, and the HTMX poll traffic
// would drown the log anyway.
func NewRouter(state *monitor.State, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// Main page
	r.GET("/", Index(state, log))

	// JSON API
	api := r.Group("/api")
	{
		api.GET("/stats", Stats(state))
		api.GET("/sessions", Sessions(state))
		api.GET("/history", History(state))
		api.GET("/refresh", Refresh(state, log))
	}

	// HTMX partials
	partials := r.Group("/partials")
	{
		partials.GET("/budget", BudgetPartial(state, log))
		partials.GET("/stats", StatsPartial(state, log))
		partials.GET("/sessions", SessionsPartial(state, log))
	}

	return r
}
