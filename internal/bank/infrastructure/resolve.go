package infrastructure

import (
	"net/url"
	"path/filepath"
)

// Resolve resolves a note reference against the locator of the bank that
// contains it. Absolute URLs and data URIs are returned unchanged, as is ref
// when base is empty.
func Resolve(base, ref string) string {
	if ref == "" || base == "" || Scheme(ref) != "" {
		return ref
	}

	switch Scheme(base) {
	case "http", "https", "file":
		b, err := url.Parse(base)
		if err != nil {
			return ref
		}
		r, err := url.Parse(ref)
		if err != nil {
			return ref
		}
		return b.ResolveReference(r).String()
	case "":
		if filepath.IsAbs(ref) || (len(ref) > 0 && ref[0] == '/') {
			return ref
		}
		return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref))
	default:
		return ref
	}
}
