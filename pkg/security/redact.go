package security

import "strings"

// Redact strips credential material from a connection target so it can be
// embedded in log records and error messages. The userinfo section, if any,
// is replaced with "***". Inputs without credentials pass through unchanged.
func Redact(target string) string {
	scheme, rest, found := strings.Cut(target, "://")
	if !found {
		// No scheme separator; blank anything before an "@" to be safe.
		if at := strings.LastIndex(target, "@"); at >= 0 {
			return "***" + target[at:]
		}
		return target
	}

	authority := rest
	var tail string
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		authority = rest[:idx]
		tail = rest[idx:]
	}

	if at := strings.LastIndex(authority, "@"); at >= 0 {
		authority = "***@" + authority[at+1:]
	}

	return scheme + "://" + authority + tail
}
