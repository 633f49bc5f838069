package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// HistoryEntry is one prompt recorded in ~/.claude/history.jsonl.
type HistoryEntry struct {
	Display   string `json:"display"`
	Timestamp int64  `json:"timestamp"`
	Project   string `json:"project"`
	SessionID string `json:"sessionId"`
}

// Time converts the entry's millisecond timestamp. Returns the zero time if
// the entry has no timestamp.
func (e HistoryEntry) Time() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp).UTC()
}

// ParseHistoryFile reads the prompt history file. Malformed lines are
// skipped, same stance as session transcripts.
func ParseHistoryFile(path string) ([]HistoryEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var entries []HistoryEntry

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry HistoryEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// UniqueProjects returns the sorted, deduplicated project paths seen in
// history.
func UniqueProjects(entries []HistoryEntry) []string {
	var projects []string
	for _, e := range entries {
		if e.Project != "" {
			projects = append(projects, e.Project)
		}
	}
	sort.Strings(projects)

	out := projects[:0]
	for i, p := range projects {
		if i == 0 || projects[i-1] != p {
			out = append(out, p)
		}
	}
	return out
}
