package logger

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`[^@\s,;"']+@[^@\s,;"']+\.[^@\s,;"']+`)

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if (strings.Contains(key, "email") || strings.Contains(key, "recipient")) && strings.Count(val, "@") == 1 {
		return RedactEmail(strings.TrimSpace(val))
	}
	// Lists of addresses and free text: mask each embedded address.
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}
