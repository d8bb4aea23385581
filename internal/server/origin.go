// Package server normalizes and validates HTTP origins for WebSocket requests
// to enforce configured access control.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// normalizeOrigins lowercases scheme and host of every configured origin.
// "*" switches the allow-list off; entries that do not parse are returned in
// rejected.
func normalizeOrigins(origins []string) (normalized []string, allowAll bool, rejected []string) {
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
		case trimmed == "*":
			allowAll = true
		default:
			if n, ok := normalizeOrigin(trimmed); ok {
				normalized = append(normalized, n)
			} else {
				rejected = append(rejected, origin)
			}
		}
	}
	return normalized, allowAll, rejected
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// originPolicy is the upgrader's CheckOrigin. It reads the allow-list from
// the active config on every request and logs refusals on the hub's logger.
type originPolicy struct {
	log *slog.Logger
}

// allows reports whether the Origin header value is on the allow-list. A
// missing or unparseable origin never passes, even with "*".
func (p *originPolicy) allows(origin string) bool {
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}

	configMu.RLock()
	defer configMu.RUnlock()

	if allowAllOrigins {
		return true
	}
	_, exists := allowedOrigins[normalized]
	return exists
}

func (p *originPolicy) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.allows(origin) {
		return true
	}

	p.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", origin, "addr", r.RemoteAddr)
	return false
}
