// Package normalize implements the Normalizer (C2): the three mutating rule
// sets from §4.2 — filesystem path normalization, host redaction, and exec
// argv masking — each individually togglable via NormalizationConfig.
// Every function here is idempotent: applying it twice on its own output
// yields the same result, which internal/signature and the test suite in
// this package both rely on (§8's idempotence invariant).
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"regexp"
	"strings"

	"github.com/agentci/agentci/internal/canon"
)

// FSConfig controls filesystem path normalization (§6
// normalization.filesystem / redaction).
type FSConfig struct {
	CollapseTemp bool
	CollapseHome bool
	IgnoreGlobs  []string
	RedactPaths  []string
	HashValues   bool
}

var tempPrefixes = []string{
	"/tmp/",
	"/var/tmp/",
	`\Temp\`,
	`\tmp\`,
}

var macTempPattern = regexp.MustCompile(`^/private/var/folders/[^/]+/[^/]+/[^/]+/`)

// FSPath normalizes a single filesystem path per §4.2(a)-(f). Returns
// (value, dropped). dropped=true means the caller must omit the path from
// the signature entirely (an ignore_glob matched).
func FSPath(p string, cfg FSConfig) (string, bool) {
	// (a) unify separators to forward slash.
	v := strings.ReplaceAll(p, `\`, "/")

	// (b) strip a leading "./".
	v = strings.TrimPrefix(v, "./")

	// (c) collapse well-known temp-directory prefixes.
	if cfg.CollapseTemp {
		v = collapseTemp(v, p)
	}

	// (d) collapse the user home prefix.
	if cfg.CollapseHome {
		v = collapseHome(v)
	}

	// (e) drop paths matching an ignore glob.
	for _, g := range cfg.IgnoreGlobs {
		if globMatch(g, v) {
			return "", true
		}
	}

	// (f) redact paths matching a redact_paths glob.
	for _, g := range cfg.RedactPaths {
		if globMatch(g, v) {
			if cfg.HashValues {
				return "<hash:sha256:" + hashHex(v) + ">", false
			}
			return "<redacted:path>", false
		}
	}

	return v, false
}

func collapseTemp(slashed, original string) string {
	if macTempPattern.MatchString(original) {
		return macTempPattern.ReplaceAllString(original, "<temp>/")
	}
	for _, prefix := range tempPrefixes {
		slashPrefix := strings.ReplaceAll(prefix, `\`, "/")
		if strings.HasPrefix(slashed, slashPrefix) {
			return "<temp>/" + strings.TrimPrefix(slashed, slashPrefix)
		}
	}
	return slashed
}

func collapseHome(v string) string {
	home := canon.ExpandHome("~")
	if home == "" {
		return v
	}
	homeSlash := strings.ReplaceAll(home, `\`, "/")
	homeSlash = strings.TrimSuffix(homeSlash, "/")
	if v == homeSlash {
		return "~"
	}
	if strings.HasPrefix(v, homeSlash+"/") {
		return "~/" + strings.TrimPrefix(v, homeSlash+"/")
	}
	return v
}

func hashHex(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}

// GlobMatch exposes globMatch for callers outside this package (the policy
// evaluator and the patch facade both need the same extended-glob grammar).
func GlobMatch(pattern, candidate string) bool {
	return globMatch(pattern, candidate)
}

// globMatch implements the extended-glob grammar from §4.9: "**" matches
// across path segments, "*" within a segment, "?" a single character, and a
// leading "~/" expands to the home directory. A leading "./" on the glob is
// normalized the same way as the candidate.
func globMatch(pattern, candidate string) bool {
	pattern = canon.ExpandHome(pattern)
	pattern = strings.TrimPrefix(pattern, "./")
	pattern = strings.ReplaceAll(pattern, `\`, "/")
	candidate = strings.TrimPrefix(candidate, "./")

	re := globToRegexp(pattern)
	return re.MatchString(candidate)
}

// globToRegexp translates the glob grammar into an anchored regexp.
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
				// swallow an immediately following slash so "**/x" also
				// matches "x" at the root.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b.WriteString(regexp.QuoteMeta(string(runes[i])))
		default:
			b.WriteRune(runes[i])
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		// Pattern could not be translated; fall back to a literal match so a
		// malformed glob never panics the recording path.
		return regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
	}
	return re
}

// PathJoinLike mirrors path.Join's cleaning semantics for slash-joined
// candidates produced elsewhere in this package, without re-introducing a
// leading "./" that TrimPrefix already stripped.
func PathJoinLike(elem ...string) string {
	return path.Join(elem...)
}
