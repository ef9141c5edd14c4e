package normalize

import (
	"strings"

	"github.com/agentci/agentci/internal/canon"
)

// HostConfig controls the net_hosts / net_etld_plus1 redaction rules from
// §4.2(g)-(h).
type HostConfig struct {
	RedactHosts []string
	HashValues  bool
	// Canonicalize gates §4.1's host canonicalization step (trim, lower,
	// drop trailing dot, strip the port suffix) per §6's
	// normalization.network.normalize_hosts. When false the raw host is
	// used as-is, still subject to redact_hosts matching below.
	Canonicalize bool
}

// Host canonicalizes raw (unless disabled by cfg.Canonicalize) and, if it
// matches a redact_hosts glob-or-exact entry, replaces it with a redaction
// token instead of the canonical value.
func Host(raw string, cfg HostConfig) string {
	h := raw
	if cfg.Canonicalize {
		h = canon.CanonicalizeHost(raw)
	}
	for _, pattern := range cfg.RedactHosts {
		if hostMatch(pattern, h) {
			if cfg.HashValues {
				return "<hash:sha256:" + hashHex(h) + ">"
			}
			return "<redacted:host>"
		}
	}
	return h
}

// hostMatch supports exact hosts and a single leading "*." wildcard, e.g.
// "*.internal.example.com" matches any subdomain plus the bare domain.
func hostMatch(pattern, host string) bool {
	pattern = strings.ToLower(pattern)
	if pattern == host {
		return true
	}
	if strings.HasPrefix(pattern, "*.") {
		suffix := pattern[1:] // ".internal.example.com"
		base := pattern[2:]
		return host == base || strings.HasSuffix(host, suffix)
	}
	return false
}
