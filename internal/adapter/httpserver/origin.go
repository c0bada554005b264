package httpserver

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// parseOrigins splits a comma-separated origin list into normalized
// scheme://host entries. "*" is kept as is.
func parseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if part == "*" {
			origins = append(origins, part)
			continue
		}
		if origin := extractOrigin(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// newCheckOrigin returns a CheckOrigin function for the stream upgrader.
// Empty origins (non-browser clients) are always allowed; "*" allows every origin.
func newCheckOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		if _, ok := set[extractOrigin(origin)]; ok {
			return true
		}

		slog.WarnContext(r.Context(), "WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
		return false
	}
}

func extractOrigin(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
