package web

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ari/claude-monitor/internal/monitor"
	"github.com/ari/claude-monitor/internal/tracker"
	"github.com/ari/claude-monitor/internal/ui"
)

// View models keep the templates dumb: all formatting decisions are made
// here so they can be unit tested without parsing HTML.

type budgetView struct {
	Percentage     string
	PercentageCSS  string
	ProgressClass  string
	Used           string
	UsedExact      string
	Limit          string
	LimitExact     string
	Remaining      string
	RemainingExact string
	Reset          string
}

type statsView struct {
	LifetimeTotal  string
	Input          string
	Output         string
	CacheCreated   string
	CacheRead      string
	ActiveSessions int
	ActiveAgents   int
	TotalMessages  int
}

type sessionView struct {
	Project     string
	ShortID     string
	Messages    int
	Tokens      string
	LastSeen    string
	LastSeenAbs string
	IsAgent     bool
}

type projectView struct {
	Path     string
	Sessions int
	Messages int
	Tokens   string
}

type indexView struct {
	Budget   budgetView
	Stats    statsView
	Sessions []sessionView
	Projects []projectView
}

func newBudgetView(stats monitor.Stats) budgetView {
	percentage := stats.Budget.Percentage

	progressClass := "low"
	switch {
	case percentage >= 90:
		progressClass = "critical"
	case percentage >= 75:
		progressClass = "high"
	case percentage >= 50:
		progressClass = "medium"
	}

	reset := ""
	if stats.Budget.ResetMinutes != nil {
		reset = ui.FormatMinutes(*stats.Budget.ResetMinutes)
	}

	return budgetView{
		Percentage:     fmt.Sprintf("%.1f%%", percentage),
		PercentageCSS:  fmt.Sprintf("%.1f", percentage),
		ProgressClass:  progressClass,
		Used:           ui.FormatTokens(stats.Budget.Used),
		UsedExact:      ui.FormatTokensExact(stats.Budget.Used),
		Limit:          ui.FormatTokens(stats.Budget.Limit),
		LimitExact:     ui.FormatTokensExact(stats.Budget.Limit),
		Remaining:      ui.FormatTokens(stats.Budget.Remaining),
		RemainingExact: ui.FormatTokensExact(stats.Budget.Remaining),
		Reset:          reset,
	}
}

func newStatsView(stats monitor.Stats) statsView {
	return statsView{
		LifetimeTotal:  ui.FormatTokens(stats.TotalUsage.Total()),
		Input:          ui.FormatTokens(stats.TotalUsage.InputTokens),
		Output:         ui.FormatTokens(stats.TotalUsage.OutputTokens),
		CacheCreated:   ui.FormatTokens(stats.TotalUsage.CacheCreationInputTokens),
		CacheRead:      ui.FormatTokens(stats.TotalUsage.CacheReadInputTokens),
		ActiveSessions: stats.ActiveSessions,
		ActiveAgents:   stats.ActiveAgents,
		TotalMessages:  stats.TotalMessages,
	}
}

func newSessionViews(sessions []tracker.SessionData) []sessionView {
	views := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		shortID := s.SessionID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		var lastActivity time.Time
		if s.LastActivity != nil {
			lastActivity = *s.LastActivity
		}
		views = append(views, sessionView{
			Project:     s.ProjectPath,
			ShortID:     shortID,
			Messages:    s.MessageCount,
			Tokens:      ui.FormatTokens(s.Usage.Total()),
			LastSeen:    ui.FormatRelative(lastActivity),
			LastSeenAbs: ui.FormatDateTime(lastActivity),
			IsAgent:     s.IsAgent,
		})
	}
	return views
}

func newProjectViews(stats monitor.Stats) []projectView {
	views := make([]projectView, 0, len(stats.Projects))
	for _, p := range stats.Projects {
		views = append(views, projectView{
			Path:     p.Path,
			Sessions: p.SessionCount,
			Messages: p.MessageCount,
			Tokens:   ui.FormatTokens(p.Usage.Total()),
		})
	}
	return views
}

// RenderIndex renders the full dashboard page.
func RenderIndex(stats monitor.Stats, sessions []tracker.SessionData) (string, error) {
	return render("index", indexView{
		Budget:   newBudgetView(stats),
		Stats:    newStatsView(stats),
		Sessions: newSessionViews(sessions),
		Projects: newProjectViews(stats),
	})
}

// RenderBudget renders the rolling-budget partial.
func RenderBudget(stats monitor.Stats) (string, error) {
	return render("budget", newBudgetView(stats))
}

// RenderStatsCards renders the stat-card grid partial.
func RenderStatsCards(stats monitor.Stats) (string, error) {
	return render("stats", newStatsView(stats))
}

// RenderSessions renders the active-sessions partial.
func RenderSessions(sessions []tracker.SessionData) (string, error) {
	return render("sessions", newSessionViews(sessions))
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

var templates = template.Must(template.New("dashboard").Parse(dashboardTemplates))

const dashboardTemplates = `
{{define "budget"}}<div class="budget-section">
    <div class="budget-header">
        <div class="budget-title">
            <span>5-Hour Rolling Budget</span>
        </div>
        <div class="budget-percentage">{{.Percentage}}</div>
    </div>
    <div class="progress-container">
        <div class="progress-bar {{.ProgressClass}}" style="width: {{.PercentageCSS}}%;"></div>
    </div>
    <div class="budget-stats">
        <div class="budget-stat">
            <span class="budget-stat-label">Used</span>
            <span class="budget-stat-value" title="{{.UsedExact}} tokens">{{.Used}}</span>
        </div>
        <div class="budget-stat">
            <span class="budget-stat-label">Limit</span>
            <span class="budget-stat-value" title="{{.LimitExact}} tokens">{{.Limit}}</span>
        </div>
        <div class="budget-stat">
            <span class="budget-stat-label">Remaining</span>
            <span class="budget-stat-value remaining" title="{{.RemainingExact}} tokens">{{.Remaining}}</span>
        </div>
{{- if .Reset}}
        <div class="budget-stat">
            <span class="budget-stat-label">Resets In</span>
            <span class="budget-stat-value">{{.Reset}}</span>
        </div>
{{- end}}
    </div>
</div>{{end}}

{{define "stats"}}<div class="stats-grid">
    <div class="stat-card">
        <div class="stat-label">Lifetime Total Tokens</div>
        <div class="stat-value highlight">{{.LifetimeTotal}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Lifetime Input</div>
        <div class="stat-value">{{.Input}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Lifetime Output</div>
        <div class="stat-value">{{.Output}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Cache Created</div>
        <div class="stat-value">{{.CacheCreated}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Cache Read</div>
        <div class="stat-value">{{.CacheRead}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Active Sessions</div>
        <div class="stat-value green">{{.ActiveSessions}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Active Agents</div>
        <div class="stat-value yellow">{{.ActiveAgents}}</div>
    </div>
    <div class="stat-card">
        <div class="stat-label">Total Messages</div>
        <div class="stat-value">{{.TotalMessages}}</div>
    </div>
</div>{{end}}

{{define "sessions"}}<div class="section">
    <h2 class="section-title">Active Sessions{{if .}} ({{len .}}){{end}}</h2>
{{- if not .}}
    <div class="empty">No active sessions</div>
{{- else}}
    <ul class="session-list">
{{- range .}}
        <li class="session-item">
            <div class="session-info">
                <span class="session-project">{{.Project}}</span>
                <span class="session-id">{{.ShortID}}</span>
            </div>
            <div class="session-stats">
                <span>{{.Messages}} msgs</span>
                <span>{{.Tokens}} tokens</span>
                <span class="session-seen" title="{{.LastSeenAbs}}">{{.LastSeen}}</span>
                {{if .IsAgent}}<span class="badge agent">Agent</span>{{else}}<span class="badge">Session</span>{{end}}
            </div>
        </li>
{{- end}}
    </ul>
{{- end}}
</div>{{end}}

{{define "projects"}}{{if not .}}<div class="empty">No projects found</div>{{else}}<ul class="project-list">
{{- range .}}
    <li class="project-item">
        <span class="project-path">{{.Path}}</span>
        <div class="project-stats">
            <span>{{.Sessions}} sessions</span>
            <span>{{.Messages}} msgs</span>
            <span>{{.Tokens}} tokens</span>
        </div>
    </li>
{{- end}}
</ul>{{end}}{{end}}

{{define "index"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Claude Monitor</title>
    <script src="https://unpkg.com/htmx.org@1.9.10"></script>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: #0f172a;
            color: #e2e8f0;
            min-height: 100vh;
            padding: 2rem;
        }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 {
            font-size: 2rem;
            margin-bottom: 2rem;
            color: #f8fafc;
            display: flex;
            align-items: center;
            gap: 0.75rem;
        }
        h1::before {
            content: '';
            display: inline-block;
            width: 12px;
            height: 12px;
            background: #22c55e;
            border-radius: 50%;
            animation: pulse 2s infinite;
        }
        @keyframes pulse {
            0%, 100% { opacity: 1; }
            50% { opacity: 0.5; }
        }
        .budget-section {
            background: linear-gradient(135deg, #1e293b 0%, #0f172a 100%);
            border-radius: 16px;
            padding: 1.5rem;
            margin-bottom: 2rem;
            border: 1px solid #334155;
        }
        .budget-header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 1rem;
        }
        .budget-title {
            font-size: 1.25rem;
            color: #f8fafc;
            display: flex;
            align-items: center;
            gap: 0.5rem;
        }
        .budget-percentage {
            font-size: 2.5rem;
            font-weight: 700;
            color: #818cf8;
        }
        .progress-container {
            background: #0f172a;
            border-radius: 8px;
            height: 24px;
            overflow: hidden;
            margin-bottom: 1rem;
        }
        .progress-bar {
            height: 100%;
            border-radius: 8px;
            transition: width 0.5s ease;
        }
        .progress-bar.low { background: linear-gradient(90deg, #22c55e, #4ade80); }
        .progress-bar.medium { background: linear-gradient(90deg, #facc15, #fde047); }
        .progress-bar.high { background: linear-gradient(90deg, #f97316, #fb923c); }
        .progress-bar.critical { background: linear-gradient(90deg, #ef4444, #f87171); }
        .budget-stats {
            display: flex;
            justify-content: space-between;
            flex-wrap: wrap;
            gap: 1rem;
        }
        .budget-stat {
            display: flex;
            flex-direction: column;
            gap: 0.25rem;
        }
        .budget-stat-label {
            font-size: 0.75rem;
            color: #94a3b8;
            text-transform: uppercase;
            letter-spacing: 0.05em;
        }
        .budget-stat-value {
            font-size: 1.25rem;
            font-weight: 600;
            color: #f8fafc;
        }
        .budget-stat-value.remaining { color: #22c55e; }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .stat-card {
            background: #1e293b;
            border-radius: 12px;
            padding: 1.5rem;
            border: 1px solid #334155;
        }
        .stat-label {
            font-size: 0.875rem;
            color: #94a3b8;
            margin-bottom: 0.5rem;
        }
        .stat-value {
            font-size: 2rem;
            font-weight: 700;
            color: #f8fafc;
        }
        .stat-value.highlight { color: #818cf8; }
        .stat-value.green { color: #22c55e; }
        .stat-value.yellow { color: #facc15; }
        .section {
            background: #1e293b;
            border-radius: 12px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            border: 1px solid #334155;
        }
        .section-title {
            font-size: 1.25rem;
            margin-bottom: 1rem;
            color: #f8fafc;
        }
        .session-list { list-style: none; }
        .session-item {
            padding: 0.75rem 1rem;
            background: #0f172a;
            border-radius: 8px;
            margin-bottom: 0.5rem;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        .session-item:last-child { margin-bottom: 0; }
        .session-info { display: flex; flex-direction: column; gap: 0.25rem; }
        .session-project { font-weight: 500; color: #e2e8f0; }
        .session-id { font-size: 0.75rem; color: #64748b; font-family: monospace; }
        .session-seen { color: #64748b; }
        .session-stats {
            display: flex;
            gap: 1rem;
            font-size: 0.875rem;
            color: #94a3b8;
        }
        .badge {
            font-size: 0.75rem;
            padding: 0.25rem 0.5rem;
            border-radius: 4px;
            background: #4f46e5;
            color: white;
        }
        .badge.agent { background: #7c3aed; }
        .project-list { list-style: none; }
        .project-item {
            padding: 0.75rem 1rem;
            background: #0f172a;
            border-radius: 8px;
            margin-bottom: 0.5rem;
            display: flex;
            justify-content: space-between;
            align-items: center;
        }
        .project-path { font-family: monospace; color: #e2e8f0; }
        .project-stats { display: flex; gap: 1.5rem; font-size: 0.875rem; color: #94a3b8; }
        .empty { color: #64748b; font-style: italic; padding: 1rem; text-align: center; }
        .refresh-btn {
            background: #3b82f6;
            color: white;
            border: none;
            padding: 0.5rem 1rem;
            border-radius: 6px;
            cursor: pointer;
            font-size: 0.875rem;
        }
        .refresh-btn:hover { background: #2563eb; }
        .header {
            display: flex;
            justify-content: space-between;
            align-items: center;
            margin-bottom: 2rem;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Claude Monitor</h1>
            <button class="refresh-btn" hx-get="/api/refresh" hx-swap="none" hx-on::after-request="htmx.trigger('#budget-container', 'refresh'); htmx.trigger('#stats-container', 'refresh'); htmx.trigger('#sessions-container', 'refresh');">
                Refresh
            </button>
        </div>

        <div id="budget-container" hx-get="/partials/budget" hx-trigger="load, refresh, every 10s" hx-swap="innerHTML">
            {{template "budget" .Budget}}
        </div>

        <div id="stats-container" hx-get="/partials/stats" hx-trigger="load, refresh, every 10s" hx-swap="innerHTML">
            {{template "stats" .Stats}}
        </div>

        <div id="sessions-container" hx-get="/partials/sessions" hx-trigger="load, refresh, every 10s" hx-swap="innerHTML">
            {{template "sessions" .Sessions}}
        </div>

        <div class="section">
            <h2 class="section-title">Projects by Usage</h2>
            {{template "projects" .Projects}}
        </div>
    </div>
</body>
</html>{{end}}
`
