package platform

import "strings"

// NormalizeDomain canonicalizes a user-supplied domain name: lowercase, no
// scheme, no path, no port, no trailing dot, no leading "www.".
// The result is the unique key for the domain registry. Normalization is
// idempotent: NormalizeDomain(NormalizeDomain(s)) == NormalizeDomain(s).
func NormalizeDomain(s string) string {
	d := strings.ToLower(strings.TrimSpace(s))

	for _, scheme := range []string{"https://", "http://"} {
		d = strings.TrimPrefix(d, scheme)
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimSuffix(d, ".")
	d = strings.TrimPrefix(d, "www.")
	return d
}

// RegistrableRoot returns the registrable apex for a hostname by stripping
// subdomain labels, e.g. "shop.eu.example.com" -> "example.com". Used as the
// fallback when no provider zone exists at the full hostname. Multi-label
// public suffixes (co.uk style) are not resolved here; the edge provider
// lookup is authoritative and this is only the second lookup key.
func RegistrableRoot(hostname string) string {
	parts := strings.Split(hostname, ".")
	if len(parts) <= 2 {
		return hostname
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// IsValidDomainName reports whether a normalized name looks like a
// registrable hostname: at least two labels of letters, digits, and
// hyphens, no label starting or ending with a hyphen.
func IsValidDomainName(name string) bool {
	if len(name) < 3 || len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, c := range label {
			if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}

// ZoneCandidates returns the lookup keys for resolving the provider zone that
// owns a hostname: the full hostname first, then its registrable root.
// Each key is a single indexed lookup, never a scan.
func ZoneCandidates(hostname string) []string {
	root := RegistrableRoot(hostname)
	if root == hostname {
		return []string{hostname}
	}
	return []string{hostname, root}
}
