package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ari/claude-monitor/internal/config"
	"github.com/ari/claude-monitor/internal/tracker"
)

// activeThreshold is how recent a session's last activity must be for the
// session (or its project) to count as active. Shared by session-activity
// and project-activity classification.
const activeThreshold = 300 * time.Second

// State owns the current view of all monitoring data: the session set, the
// timestamped usage events backing the rolling window, and the prompt
// history. One writer (Refresh) and many readers, behind a single
// read/write lock over the whole aggregate.
type State struct {
	mu          sync.RWMutex
	cfg         *config.Config
	log         *zap.Logger
	sessions    map[string]tracker.SessionData
	usages      []tracker.TimestampedUsage
	history     []tracker.HistoryEntry
	lastRefresh time.Time
}

// Stats is the snapshot handed to the dashboard and the JSON API.
type Stats struct {
	TotalUsage     tracker.TokenUsage `json:"total_usage"`
	RollingUsage   tracker.TokenUsage `json:"rolling_usage"`
	Budget         tracker.BudgetInfo `json:"budget"`
	ActiveSessions int                `json:"active_sessions"`
	ActiveAgents   int                `json:"active_agents"`
	TotalMessages  int                `json:"total_messages"`
	Projects       []ProjectStats     `json:"projects"`
}

// ProjectStats rolls up every session sharing a project path.
type ProjectStats struct {
	Path         string             `json:"path"`
	Usage        tracker.TokenUsage `json:"usage"`
	SessionCount int                `json:"session_count"`
	MessageCount int                `json:"message_count"`
}

// NewState creates an empty state store. Call Refresh to load data.
func NewState(cfg *config.Config, log *zap.Logger) *State {
	return &State{
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]tracker.SessionData),
	}
}

// Refresh rebuilds the session set from disk. The rebuild is a full re-scan:
// every project directory under the configured root is walked and every
// .jsonl transcript re-parsed, replacing whatever was loaded before.
//
// A transcript that fails to parse is logged and skipped; a directory that
// fails to enumerate fails the whole refresh and the previous state is kept
// untouched. A missing root directory is not an error, it just means zero
// sessions.
func (s *State) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make(map[string]tracker.SessionData)
	var usages []tracker.TimestampedUsage

	// Prompt history lives beside the projects directory, not under it, so it
	// loads even before the first transcript exists. Best-effort; the file
	// may simply not be there yet.
	history, err := tracker.ParseHistoryFile(s.cfg.HistoryFile())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("failed to parse history file",
			zap.String("path", s.cfg.HistoryFile()),
			zap.Error(err))
	}

	projectsDir := s.cfg.ProjectsDir()
	projectEntries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			s.sessions = sessions
			s.usages = nil
			s.history = history
			s.lastRefresh = time.Now()
			return nil
		}
		return fmt.Errorf("failed to read projects directory: %w", err)
	}

	for _, projectEntry := range projectEntries {
		if !projectEntry.IsDir() {
			continue
		}
		projectPath := filepath.Join(projectsDir, projectEntry.Name())

		sessionEntries, err := os.ReadDir(projectPath)
		if err != nil {
			return fmt.Errorf("failed to read project directory %s: %w", projectPath, err)
		}

		for _, sessionEntry := range sessionEntries {
			if sessionEntry.IsDir() || filepath.Ext(sessionEntry.Name()) != ".jsonl" {
				continue
			}
			sessionPath := filepath.Join(projectPath, sessionEntry.Name())

			session, timestamped, err := tracker.ParseSessionFile(sessionPath)
			if err != nil {
				s.log.Warn("failed to parse session file",
					zap.String("path", sessionPath),
					zap.Error(err))
				continue
			}
			sessions[session.Key()] = session
			usages = append(usages, timestamped...)
		}
	}

	s.sessions = sessions
	s.usages = usages
	s.history = history
	s.lastRefresh = time.Now()

	s.log.Info("refreshed data",
		zap.Int("sessions", len(s.sessions)),
		zap.Int("usage_events", len(s.usages)))
	return nil
}

// Stats aggregates the current session set into a snapshot. Aggregation is
// cheap relative to the disk scan, so it runs at read time against "now"
// under the read lock.
func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return aggregateStats(s.sessions, s.usages, time.Now(), s.cfg.TokenLimit, s.cfg.WindowHours)
}

// ActiveSessions lists sessions with activity in the last five minutes,
// most recent first.
func (s *State) ActiveSessions() []tracker.SessionData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var active []tracker.SessionData
	for _, session := range s.sessions {
		if isActive(session, now) {
			active = append(active, session)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		return active[i].LastActivity.After(*active[j].LastActivity)
	})
	return active
}

// History returns the most recent prompt history entries, newest first,
// capped at limit (0 means all).
func (s *State) History(limit int) []tracker.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]tracker.HistoryEntry, len(s.history))
	copy(entries, s.history)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// LastRefresh reports when the last successful refresh completed.
func (s *State) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Config exposes the configuration the store was built with.
func (s *State) Config() *config.Config {
	return s.cfg
}

func isActive(session tracker.SessionData, now time.Time) bool {
	return session.LastActivity != nil && now.Sub(*session.LastActivity) < activeThreshold
}

// aggregateStats folds the session set and usage events into a Stats
// snapshot. Pure with respect to its inputs so it can be tested without a
// filesystem.
func aggregateStats(sessions map[string]tracker.SessionData, usages []tracker.TimestampedUsage, now time.Time, limit int64, windowHours int) Stats {
	stats := Stats{}

	type projectAccum struct {
		usage        tracker.TokenUsage
		sessionCount int
		messageCount int
	}
	projectOrder := []string{}
	projectMap := make(map[string]*projectAccum)

	// Deterministic rollup order regardless of map iteration
	keys := make([]string, 0, len(sessions))
	for key := range sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		session := sessions[key]
		stats.TotalUsage = stats.TotalUsage.Add(session.Usage)
		stats.TotalMessages += session.MessageCount

		if isActive(session, now) {
			if session.IsAgent {
				stats.ActiveAgents++
			} else {
				stats.ActiveSessions++
			}
		}

		accum, ok := projectMap[session.ProjectPath]
		if !ok {
			accum = &projectAccum{}
			projectMap[session.ProjectPath] = accum
			projectOrder = append(projectOrder, session.ProjectPath)
		}
		accum.usage = accum.usage.Add(session.Usage)
		accum.sessionCount++
		accum.messageCount += session.MessageCount
	}

	windowStart := now.Add(-time.Duration(windowHours) * time.Hour)
	for _, tu := range usages {
		if !tu.Timestamp.Before(windowStart) {
			stats.RollingUsage = stats.RollingUsage.Add(tu.Usage)
		}
	}

	stats.Budget = tracker.ComputeBudget(usages, now, limit, windowHours)

	stats.Projects = make([]ProjectStats, 0, len(projectOrder))
	for _, path := range projectOrder {
		accum := projectMap[path]
		stats.Projects = append(stats.Projects, ProjectStats{
			Path:         path,
			Usage:        accum.usage,
			SessionCount: accum.sessionCount,
			MessageCount: accum.messageCount,
		})
	}
	sort.SliceStable(stats.Projects, func(i, j int) bool {
		return stats.Projects[i].Usage.Total() > stats.Projects[j].Usage.Total()
	})

	return stats
}
