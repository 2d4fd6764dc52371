package security

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrymomot/mongoconnect/pkg/environment"
)

// allowedSchemes is the exhaustive set of permitted connection schemes.
var allowedSchemes = []string{"mongodb", "mongodb+srv"}

// dangerousSchemes are substrings that indicate script-execution or inline
// data payloads smuggled into a connection target. Their presence anywhere
// in the raw string is a hard failure, regardless of how a parser would
// decompose the input.
var dangerousSchemes = []string{"javascript:", "data:", "vbscript:", "file:"}

// placeholderHosts are hostnames that are almost certainly fake values left
// over from templates or tests. They are rejected unless the target also
// carries a port or a non-trivial path, which suggests a deliberate choice.
var placeholderHosts = map[string]struct{}{
	"example":     {},
	"test":        {},
	"invalid":     {},
	"host":        {},
	"hostname":    {},
	"placeholder": {},
	"changeme":    {},
}

// loopbackHosts trigger a warning when targeted from a production process.
var loopbackHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"::1":       {},
	"0.0.0.0":   {},
}

// parsedTarget is the decomposed form of a connection target string.
type parsedTarget struct {
	scheme   string
	hasCreds bool
	hosts    []hostPort // comma-separated hosts in the authority
	path     string
	query    string
	fragment string
}

type hostPort struct {
	host string
	port string // empty when absent
}

// ValidateTarget validates a connection target URI against security policy
// using the execution mode resolved from the environment. It never returns
// an error value and never panics; every failure mode is reported through
// the result. Error messages never contain the raw target or credentials.
//
// When allowedHosts is non-empty, the target's host must match one of its
// entries exactly, or be a strict subdomain of a wildcard entry of the form
// "*.domain". The bare domain itself does not satisfy its own wildcard.
func ValidateTarget(target string, allowedHosts ...string) ValidationResult {
	return ValidateTargetInEnv(environment.FromEnv(), target, allowedHosts...)
}

// ValidateTargetInEnv is the pure form of ValidateTarget with an explicit
// execution mode.
func ValidateTargetInEnv(env environment.Environment, target string, allowedHosts ...string) ValidationResult {
	result := newResult()

	if strings.TrimSpace(target) == "" {
		result.addError("connection target is required")
		return result
	}

	// Injection detection runs on the raw string before any structural
	// parsing: a parser may tuck a dangerous scheme into a path or query
	// segment where a scheme check would miss it.
	lower := strings.ToLower(target)
	for _, scheme := range dangerousSchemes {
		if strings.Contains(lower, scheme) {
			result.addError(fmt.Sprintf("target contains forbidden scheme %q", scheme))
		}
	}
	if !result.Valid {
		return result
	}

	parsed, ok := parseTarget(target, &result)
	if !ok {
		return result
	}

	if !schemeAllowed(parsed.scheme) {
		result.addError(fmt.Sprintf("scheme %q is not allowed; allowed schemes: %s",
			parsed.scheme, strings.Join(allowedSchemes, ", ")))
	}

	if len(allowedHosts) > 0 {
		for _, hp := range parsed.hosts {
			if !hostAllowed(hp.host, allowedHosts) {
				result.addError(fmt.Sprintf("host %q is not in the allowed host list", hp.host))
			}
		}
	}

	// A target naming only protocol and host identifies no database and is
	// almost always a truncated or template value.
	if isDegenerate(parsed) {
		result.addError("target is incomplete: no port, database path, or query parameters")
	}

	for _, hp := range parsed.hosts {
		if _, suspicious := placeholderHosts[hp.host]; suspicious {
			if hp.port == "" && trivialPath(parsed.path) {
				result.addError(fmt.Sprintf("host %q looks like a placeholder value", hp.host))
			}
		}
	}

	if parsed.hasCreds {
		result.addWarning("target embeds credentials; prefer injecting secrets via environment configuration")
	}
	if env.IsProduction() {
		for _, hp := range parsed.hosts {
			if _, loopback := loopbackHosts[hp.host]; loopback {
				result.addWarning(fmt.Sprintf("host %q is a loopback address in a production environment", hp.host))
			}
		}
	}

	return result
}

// parseTarget decomposes a target into scheme, credentials, hosts, path,
// query, and fragment, recording structural errors in result. It performs
// its own authority splitting because generic URI parsers silently accept
// or mangle the pathological inputs this policy must reject, and because
// connection strings allow comma-separated host lists.
func parseTarget(target string, result *ValidationResult) (parsedTarget, bool) {
	var parsed parsedTarget

	scheme, rest, found := strings.Cut(target, "://")
	if !found {
		if strings.Contains(target, "@") {
			result.addError("malformed target: credentials present without a scheme")
		} else {
			result.addError("malformed target: missing scheme separator")
		}
		return parsed, false
	}
	parsed.scheme = strings.ToLower(scheme)

	if rest == "" {
		result.addError("malformed target: scheme with no host")
		return parsed, false
	}

	// Split authority from path/query/fragment.
	authority := rest
	var tail string
	if idx := strings.IndexAny(rest, "/?#"); idx >= 0 {
		authority = rest[:idx]
		tail = rest[idx:]
	}
	parsed.path, parsed.query, parsed.fragment = splitTail(tail)

	hostPart := authority
	if at := strings.LastIndex(authority, "@"); at >= 0 {
		creds := authority[:at]
		hostPart = authority[at+1:]
		parsed.hasCreds = true
		if creds == "" {
			result.addError("malformed target: empty credentials before host")
			return parsed, false
		}
		if hostPart == "" {
			result.addError("malformed target: missing hostname after credentials")
			return parsed, false
		}
	}
	if hostPart == "" {
		result.addError("malformed target: missing hostname")
		return parsed, false
	}

	for _, raw := range strings.Split(hostPart, ",") {
		hp, err := splitHostPort(raw)
		if err != "" {
			result.addError(err)
			return parsed, false
		}
		parsed.hosts = append(parsed.hosts, hp)
	}

	return parsed, true
}

func splitTail(tail string) (path, query, fragment string) {
	path = tail
	if idx := strings.Index(path, "#"); idx >= 0 {
		fragment = path[idx+1:]
		path = path[:idx]
	}
	if idx := strings.Index(path, "?"); idx >= 0 {
		query = path[idx+1:]
		path = path[:idx]
	}
	return path, query, fragment
}

// splitHostPort separates an optional port from a host, tolerating
// bracketed IPv6 literals. A non-empty return string is an error message.
func splitHostPort(raw string) (hostPort, string) {
	if raw == "" {
		return hostPort{}, "malformed target: empty host entry"
	}

	host, port := raw, ""
	if strings.HasPrefix(raw, "[") {
		end := strings.Index(raw, "]")
		if end < 0 {
			return hostPort{}, "malformed target: unterminated IPv6 literal"
		}
		host = raw[1:end]
		if rest := raw[end+1:]; rest != "" {
			if !strings.HasPrefix(rest, ":") {
				return hostPort{}, "malformed target: unexpected characters after IPv6 literal"
			}
			port = rest[1:]
		}
	} else if idx := strings.LastIndex(raw, ":"); idx >= 0 {
		host, port = raw[:idx], raw[idx+1:]
	}

	if port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return hostPort{}, fmt.Sprintf("invalid port %q: must be an integer between 1 and 65535", port)
		}
	}
	if host == "" {
		return hostPort{}, "malformed target: missing hostname"
	}

	return hostPort{host: host, port: port}, ""
}

func schemeAllowed(scheme string) bool {
	for _, s := range allowedSchemes {
		if scheme == s {
			return true
		}
	}
	return false
}

// hostAllowed reports whether host matches the allow-list. Wildcard entries
// "*.domain" match strict subdomains only: the host must be longer than the
// domain plus the separating dot and end with ".domain". The bare domain
// never matches its own wildcard entry.
func hostAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		if domain, isWildcard := strings.CutPrefix(entry, "*."); isWildcard {
			if len(host) > len(domain)+1 && strings.HasSuffix(host, "."+domain) {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}

func isDegenerate(p parsedTarget) bool {
	for _, hp := range p.hosts {
		if hp.port != "" {
			return false
		}
	}
	return trivialPath(p.path) && p.query == "" && p.fragment == ""
}

func trivialPath(path string) bool {
	return path == "" || path == "/"
}
