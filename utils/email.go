package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

var usernameInvalidChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email is a bare address like "a@b.hu"
func IsValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// UsernameFromEmail derives a base username from the local part of an email
func UsernameFromEmail(email string) string {
	local := NormalizeEmail(email)
	if at := strings.Index(local, "@"); at >= 0 {
		local = local[:at]
	}
	local = usernameInvalidChars.ReplaceAllString(local, "")
	if local == "" {
		return "tenant"
	}
	return local
}

// MaskEmail hides most of the local part, e.g. "kovacs@example.hu" -> "k*****@example.hu"
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return email
	}
	local, domain := email[:at], email[at:]
	if len(local) == 1 {
		return "*" + domain
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + domain
}
