package tracker

import "testing"

func TestTokenUsage_Add(t *testing.T) {
	a := TokenUsage{InputTokens: 100, OutputTokens: 50, CacheCreationInputTokens: 20, CacheReadInputTokens: 10}
	b := TokenUsage{InputTokens: 1, OutputTokens: 2, CacheCreationInputTokens: 3, CacheReadInputTokens: 4}

	sum := a.Add(b)
	if sum.InputTokens != 101 || sum.OutputTokens != 52 || sum.CacheCreationInputTokens != 23 || sum.CacheReadInputTokens != 14 {
		t.Errorf("unexpected sum: %+v", sum)
	}

	// Total distributes over addition
	if sum.Total() != a.Total()+b.Total() {
		t.Errorf("Total mismatch: %d != %d + %d", sum.Total(), a.Total(), b.Total())
	}

	// Commutative
	if a.Add(b) != b.Add(a) {
		t.Error("Add is not commutative")
	}

	// Associative
	c := TokenUsage{InputTokens: 7, CacheReadInputTokens: 9}
	if a.Add(b).Add(c) != a.Add(b.Add(c)) {
		t.Error("Add is not associative")
	}

	// Zero is the identity
	if a.Add(TokenUsage{}) != a {
		t.Error("zero usage is not the identity")
	}
}

func TestTokenUsage_Billable(t *testing.T) {
	u := TokenUsage{InputTokens: 100, OutputTokens: 50, CacheCreationInputTokens: 20, CacheReadInputTokens: 1000}

	if u.Total() != 1170 {
		t.Errorf("Total = %d, want 1170", u.Total())
	}
	// Cache reads never count against the budget
	if u.Billable() != 170 {
		t.Errorf("Billable = %d, want 170", u.Billable())
	}
}

func TestSessionData_Key(t *testing.T) {
	s := SessionData{SessionID: "abc", ProjectPath: "home/user/proj"}
	if s.Key() != "home/user/proj:abc" {
		t.Errorf("Key = %q", s.Key())
	}
}
