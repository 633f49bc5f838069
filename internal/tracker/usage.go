package tracker

import "time"

// Rolling window length in hours (Max plan resets roughly every 5 hours)
const RollingWindowHours = 5

// DefaultTokenLimit is an estimate for the Max plan 5-hour window.
// It is a configured guess, not an authoritative quota.
const DefaultTokenLimit int64 = 45_000_000

// TokenUsage holds the token counters reported in a Claude Code message.
type TokenUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Add returns the pointwise sum of two usage records.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		InputTokens:              u.InputTokens + other.InputTokens,
		OutputTokens:             u.OutputTokens + other.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens + other.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens + other.CacheReadInputTokens,
	}
}

// Total returns all tokens, input and output, including cache traffic.
func (u TokenUsage) Total() int64 {
	return u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// Billable returns the tokens that count against the rolling budget.
// Cache reads are free or heavily discounted and excluded here.
func (u TokenUsage) Billable() int64 {
	return u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens
}

// TimestampedUsage pairs one message's usage with the moment it happened,
// for rolling window arithmetic.
type TimestampedUsage struct {
	Timestamp time.Time
	Usage     TokenUsage
}

// SessionData is the aggregate of one session transcript file.
type SessionData struct {
	SessionID    string     `json:"session_id"`
	ProjectPath  string     `json:"project_path"`
	Usage        TokenUsage `json:"usage"`
	MessageCount int        `json:"message_count"`
	LastActivity *time.Time `json:"last_activity"`
	IsAgent      bool       `json:"is_agent"`
}

// Key identifies a session across refreshes.
func (s SessionData) Key() string {
	return s.ProjectPath + ":" + s.SessionID
}
