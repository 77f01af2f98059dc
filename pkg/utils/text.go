// Package utils provides shared helpers for text, math, and logging.
package utils

// Truncate shortens s to at most maxLen bytes and appends "..." when it cut
// anything. A zero or negative maxLen disables truncation.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
