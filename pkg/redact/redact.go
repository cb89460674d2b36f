// Package redact masks reservation tokens before text leaves the process.
// Tokens are bearer capabilities: whoever holds one can take or return the
// reserved items.
package redact

import "regexp"

// Placeholder replaces every token.
const Placeholder = "[token]"

var tokenPattern = regexp.MustCompile(`(?i)\b[A-Z2-7]{52}\b`)

// Tokens returns s with every 52-character base32 run replaced.
func Tokens(s string) string {
	if len(s) < 52 {
		return s
	}
	return tokenPattern.ReplaceAllString(s, Placeholder)
}
