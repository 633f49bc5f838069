package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSessionFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseSessionFile_Accurate(t *testing.T) {
	content := `{"type":"user","timestamp":"2026-08-26T10:00:00Z","sessionId":"sess-123"}
{"type":"assistant","timestamp":"2026-08-26T10:00:05Z","sessionId":"sess-123","message":{"model":"claude-3-5-sonnet","role":"assistant","usage":{"input_tokens":1000,"output_tokens":500,"cache_creation_input_tokens":200,"cache_read_input_tokens":100}}}`

	tmpDir := t.TempDir()
	projectDir := filepath.Join(tmpDir, "-home-user-myproject")
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		t.Fatal(err)
	}
	path := writeSessionFile(t, projectDir, "sess-123.jsonl", content)

	session, events, err := ParseSessionFile(path)
	if err != nil {
		t.Fatalf("ParseSessionFile failed: %v", err)
	}

	if session.SessionID != "sess-123" {
		t.Errorf("SessionID = %q, want sess-123", session.SessionID)
	}
	if session.IsAgent {
		t.Error("expected IsAgent=false")
	}
	if session.ProjectPath != "/home/user/myproject" {
		t.Errorf("ProjectPath = %q, want /home/user/myproject", session.ProjectPath)
	}
	if session.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", session.MessageCount)
	}

	want := TokenUsage{InputTokens: 1000, OutputTokens: 500, CacheCreationInputTokens: 200, CacheReadInputTokens: 100}
	if session.Usage != want {
		t.Errorf("Usage = %+v, want %+v", session.Usage, want)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 timestamped event, got %d", len(events))
	}
	wantTS := time.Date(2026, 8, 26, 10, 0, 5, 0, time.UTC)
	if !events[0].Timestamp.Equal(wantTS) {
		t.Errorf("event timestamp = %v, want %v", events[0].Timestamp, wantTS)
	}
	if events[0].Usage != want {
		t.Errorf("event usage = %+v, want %+v", events[0].Usage, want)
	}

	if session.LastActivity == nil || !session.LastActivity.Equal(wantTS) {
		t.Errorf("LastActivity = %v, want %v", session.LastActivity, wantTS)
	}
}

func TestParseSessionFile_AgentPrefix(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSessionFile(t, tmpDir, "agent-abc123.jsonl",
		`{"type":"assistant","timestamp":"2026-08-26T10:00:00Z","message":{"usage":{"input_tokens":10}}}`)

	session, _, err := ParseSessionFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !session.IsAgent {
		t.Error("expected IsAgent=true for agent- prefixed file")
	}
	if session.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want prefix stripped", session.SessionID)
	}
}

func TestParseSessionFile_MalformedLineSkipped(t *testing.T) {
	content := `{"type":"user","timestamp":"2026-08-26T10:00:00Z"}
"not json"
garbage line without any structure
{"type":"assistant","timestamp":"2026-08-26T10:01:00Z","message":{"usage":{"input_tokens":100,"output_tokens":50}}}

`
	tmpDir := t.TempDir()
	path := writeSessionFile(t, tmpDir, "s1.jsonl", content)

	session, events, err := ParseSessionFile(path)
	if err != nil {
		t.Fatalf("malformed lines must not fail the parse: %v", err)
	}
	if session.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", session.MessageCount)
	}
	if session.Usage.InputTokens != 100 || session.Usage.OutputTokens != 50 {
		t.Errorf("Usage = %+v", session.Usage)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestParseSessionFile_UsageWithoutTimestamp(t *testing.T) {
	// Usage still accumulates, but no rolling-window event is emitted
	content := `{"type":"assistant","message":{"usage":{"input_tokens":42}}}`
	tmpDir := t.TempDir()
	path := writeSessionFile(t, tmpDir, "s1.jsonl", content)

	session, events, err := ParseSessionFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if session.Usage.InputTokens != 42 {
		t.Errorf("InputTokens = %d, want 42", session.Usage.InputTokens)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
	if session.LastActivity != nil {
		t.Errorf("LastActivity = %v, want nil", session.LastActivity)
	}
}

func TestParseSessionFile_LastActivityIsMax(t *testing.T) {
	content := `{"type":"user","timestamp":"2026-08-26T12:00:00Z"}
{"type":"user","timestamp":"2026-08-26T09:00:00Z"}
{"type":"user","timestamp":"2026-08-26T11:00:00Z"}`
	tmpDir := t.TempDir()
	path := writeSessionFile(t, tmpDir, "s1.jsonl", content)

	session, _, err := ParseSessionFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	if session.LastActivity == nil || !session.LastActivity.Equal(want) {
		t.Errorf("LastActivity = %v, want %v", session.LastActivity, want)
	}
}

func TestParseSessionFile_FractionalTimestamps(t *testing.T) {
	content := `{"type":"assistant","timestamp":"2026-08-26T10:00:00.123Z","message":{"usage":{"output_tokens":5}}}`
	tmpDir := t.TempDir()
	path := writeSessionFile(t, tmpDir, "s1.jsonl", content)

	_, events, err := ParseSessionFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
}

func TestParseSessionFile_MissingFile(t *testing.T) {
	_, _, err := ParseSessionFile(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
