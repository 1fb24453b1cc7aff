package database

import "strings"

// ContainsPattern builds a case-insensitive pattern for LOWER(column) LIKE ?.
func ContainsPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}
