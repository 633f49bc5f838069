package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// FormatTokens formats token count with K/M suffix
func FormatTokens(tokens int64) string {
	if tokens >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(tokens)/1_000_000)
	}
	if tokens >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(tokens)/1_000)
	}
	return fmt.Sprintf("%d", tokens)
}

// FormatTokensExact formats a token count with thousands separators
func FormatTokensExact(tokens int64) string {
	return humanize.Comma(tokens)
}

// FormatMinutes formats a minute count as "XhYm" or "Ym"
func FormatMinutes(minutes int64) string {
	if minutes >= 60 {
		return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatDateTime formats a time into a human-readable datetime
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatRelative formats a time as a relative age ("3m ago")
func FormatRelative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t.Local())
}

// Error prints an error message in red to the terminal
func Error(msg string) {
	fmt.Printf("%s%s%s\n", ColorRed, msg, ColorReset)
}
