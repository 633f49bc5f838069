package tracker

import "time"

// BudgetInfo describes where the rolling window budget stands right now.
type BudgetInfo struct {
	Limit       int64   `json:"limit"`
	Used        int64   `json:"used"`
	Remaining   int64   `json:"remaining"`
	Percentage  float64 `json:"percentage"`
	WindowHours int     `json:"window_hours"`
	// ResetMinutes is the time until the oldest in-window event ages out,
	// nil when the window is empty.
	ResetMinutes *int64 `json:"reset_minutes"`
}

// ComputeBudget derives the rolling-window budget from the full event list.
// Events with timestamp >= now-window count; cache reads never count against
// the budget. Percentage is not clamped above 100.
func ComputeBudget(events []TimestampedUsage, now time.Time, limit int64, windowHours int) BudgetInfo {
	windowStart := now.Add(-time.Duration(windowHours) * time.Hour)

	var used int64
	var oldestInWindow *time.Time

	for _, e := range events {
		if e.Timestamp.Before(windowStart) {
			continue
		}
		used += e.Usage.Billable()
		if oldestInWindow == nil || e.Timestamp.Before(*oldestInWindow) {
			ts := e.Timestamp
			oldestInWindow = &ts
		}
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	var percentage float64
	if limit > 0 {
		percentage = float64(used) / float64(limit) * 100
	}

	var resetMinutes *int64
	if oldestInWindow != nil {
		expiry := oldestInWindow.Add(time.Duration(windowHours) * time.Hour)
		minutes := int64(0)
		if expiry.After(now) {
			minutes = int64(expiry.Sub(now).Minutes())
		}
		resetMinutes = &minutes
	}

	return BudgetInfo{
		Limit:        limit,
		Used:         used,
		Remaining:    remaining,
		Percentage:   percentage,
		WindowHours:  windowHours,
		ResetMinutes: resetMinutes,
	}
}
