package handlers

import "strings"

// extractCookieToken pulls a named cookie's value out of a raw "Cookie"
// header. Returns "" when the cookie is absent.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if found && name == cookieName {
			return value
		}
	}
	return ""
}
