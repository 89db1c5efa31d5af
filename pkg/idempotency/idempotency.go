package idempotency

import "strings"

const Header = "Idempotency-Key"

// MaxKeyLength bounds stored keys.
const MaxKeyLength = 255

// Normalize trims a raw header value and reports whether it is usable.
func Normalize(raw string) (string, bool) {
	k := strings.TrimSpace(raw)
	if k == "" || len(k) > MaxKeyLength {
		return "", false
	}
	return k, true
}
