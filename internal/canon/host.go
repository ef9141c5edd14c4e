package canon

import (
	"net"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CanonicalizeHost implements §4.1's host canonicalization: trim, lower-case,
// drop a trailing dot, leave bracketed IPv6 literals alone apart from a port
// suffix, and otherwise split on the last ":" when the suffix parses as a
// port.
func CanonicalizeHost(raw string) string {
	h := strings.ToLower(strings.TrimSpace(raw))
	h = strings.TrimSuffix(h, ".")

	if strings.HasPrefix(h, "[") {
		// Bracketed IPv6, optionally with a port: "[::1]:8080".
		if idx := strings.LastIndex(h, "]"); idx != -1 {
			return h[:idx+1]
		}
		return h
	}

	if idx := strings.LastIndex(h, ":"); idx != -1 {
		maybePort := h[idx+1:]
		if _, err := strconv.Atoi(maybePort); err == nil {
			// A bare IPv6 literal (no brackets) has multiple colons; only
			// split when what remains looks like a single host, not another
			// colon-separated group.
			if strings.Count(h[:idx], ":") == 0 {
				return h[:idx]
			}
		}
	}
	return h
}

// ETLDPlus1 returns the effective top-level domain plus one label for host.
// Falls back to the input host unchanged when the public-suffix table
// cannot resolve a suffix (localhost, bare names, IP literals).
func ETLDPlus1(host string) string {
	h := CanonicalizeHost(host)
	if h == "" {
		return h
	}
	if net.ParseIP(strings.Trim(h, "[]")) != nil {
		return h
	}
	if h == "localhost" || !strings.Contains(h, ".") {
		return h
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return h
	}
	return etld1
}
