package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// agentPrefix marks transcripts written by sub-agent sessions.
const agentPrefix = "agent-"

// sessionEntry maps one JSONL line of a session transcript. Claude Code
// writes many entry types; only the fields below matter for usage tracking
// and anything unrecognized is ignored.
type sessionEntry struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	SessionID string          `json:"sessionId"`
	Message   *sessionMessage `json:"message"`
}

type sessionMessage struct {
	Role  string      `json:"role"`
	Model string      `json:"model"`
	Usage *TokenUsage `json:"usage"`
}

// ParseSessionFile parses one session transcript and returns the session
// aggregate plus every usage event that carried a timestamp.
//
// Transcripts are append-only and may contain partial writes, so empty or
// malformed lines are skipped rather than treated as errors. Only failing to
// open the file is fatal; the caller decides whether to skip or abort.
func ParseSessionFile(path string) (SessionData, []TimestampedUsage, error) {
	f, err := os.Open(path)
	if err != nil {
		return SessionData{}, nil, fmt.Errorf("failed to open session file: %w", err)
	}
	defer f.Close()

	fileName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	isAgent := strings.HasPrefix(fileName, agentPrefix)
	sessionID := strings.TrimPrefix(fileName, agentPrefix)

	// Project directories store the path with separators flattened to
	// hyphens. Reversing it is lossy for names containing literal hyphens,
	// which downstream consumers already live with.
	projectPath := strings.ReplaceAll(filepath.Base(filepath.Dir(path)), "-", "/")

	session := SessionData{
		SessionID:   sessionID,
		ProjectPath: projectPath,
		IsAgent:     isAgent,
	}

	var events []TimestampedUsage

	scanner := bufio.NewScanner(f)
	// Assistant turns with large tool results can exceed the default 64K line limit
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry sessionEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}

		if entry.Type == "assistant" || entry.Type == "user" {
			session.MessageCount++
		}

		ts, tsOK := parseTimestamp(entry.Timestamp)

		if entry.Message != nil && entry.Message.Usage != nil {
			session.Usage = session.Usage.Add(*entry.Message.Usage)
			if tsOK {
				events = append(events, TimestampedUsage{
					Timestamp: ts,
					Usage:     *entry.Message.Usage,
				})
			}
		}

		if tsOK && (session.LastActivity == nil || ts.After(*session.LastActivity)) {
			last := ts
			session.LastActivity = &last
		}
	}
	// Scanner errors mid-file leave us with whatever parsed so far, which is
	// the same stance as a torn line: use what we have, retry next refresh.

	return session, events, nil
}

// parseTimestamp accepts the RFC-3339 timestamps Claude Code writes, with or
// without fractional seconds.
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return ts.UTC(), true
}

// GetClaudeDir returns the default Claude Code data directory.
func GetClaudeDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}
