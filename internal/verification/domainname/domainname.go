// Package domainname normalizes and validates the domain strings users type
// into the dashboard. Users paste anything: full URLs, www-prefixed hosts,
// trailing slashes. Everything downstream (instructions, DNS lookups, HTTP
// checks) works on the bare host this package produces.
package domainname

import (
	"regexp"
	"strings"

	dErrors "proovd/pkg/domain-errors"
)

// hostnameRe is a pragmatic hostname shape check: dot-separated labels of
// letters, digits and hyphens, no leading/trailing hyphen per label.
var hostnameRe = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)*[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Normalize reduces a raw domain or URL to a bare lowercase host:
// scheme, leading www., port, path/query/fragment and trailing dot are all
// stripped. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	for _, prefix := range []string{"https://", "http://"} {
		s = strings.TrimPrefix(s, prefix)
	}
	s = strings.TrimPrefix(s, "www.")

	// Drop everything after the host.
	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(s, sep); idx != -1 {
			s = s[:idx]
		}
	}

	// Strip a port, careful not to mangle a stray IPv6 literal.
	if idx := strings.LastIndex(s, ":"); idx != -1 && !strings.Contains(s, "]") {
		s = s[:idx]
	}

	return strings.TrimSuffix(s, ".")
}

// Validate checks the hostname shape before any network I/O is attempted.
// The input is expected to be normalized already.
func Validate(host string) error {
	if host == "" {
		return dErrors.New(dErrors.CodeInvalidDomain, "domain is required")
	}
	if len(host) > 253 {
		return dErrors.New(dErrors.CodeInvalidDomain, "domain exceeds maximum hostname length")
	}
	if !hostnameRe.MatchString(host) {
		return dErrors.Newf(dErrors.CodeInvalidDomain, "%q is not a valid hostname", host)
	}
	for _, label := range strings.Split(host, ".") {
		if len(label) > 63 {
			return dErrors.New(dErrors.CodeInvalidDomain, "domain label exceeds 63 characters")
		}
	}
	return nil
}
