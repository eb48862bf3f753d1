package corpus

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeID returns the canonical form of an entry id.
//
// Directory names read on macOS come back in NFD while links written by the
// generator are NFC, so ids are compared in NFC.
func NormalizeID(id string) string {
	return norm.NFC.String(strings.TrimSpace(id))
}

// TargetID extracts the entry id from a same-site link destination such as
// "/articles/<id>" or "/articles/<id>/#section". The second result is false for
// external URLs and for paths outside prefix.
func TargetID(destination, prefix string) (string, bool) {
	dest := strings.TrimSpace(destination)
	if dest == "" {
		return "", false
	}

	path := dest
	if u, err := url.Parse(dest); err == nil {
		if u.Scheme != "" || u.Host != "" {
			return "", false
		}
		path = u.Path
	} else {
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}
	}

	prefix = "/" + strings.Trim(prefix, "/") + "/"
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return "", false
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return NormalizeID(rest), true
}
