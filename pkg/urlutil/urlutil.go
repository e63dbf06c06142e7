package urlutil

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Canonicalize maps equivalent spellings of a page URL to one form.
//
//   - Scheme and host are lowercased, default ports dropped
//   - Trailing slashes are removed, except for the root "/"
//   - Spaces in the path become underscores, as MediaWiki treats them alike
//   - Fragments are removed
//   - Query parameters are kept but sorted by key, so ?b=1&a=2 == ?a=2&b=1
//
// Canonicalize is pure and idempotent.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	if strings.Contains(canonical.Path, " ") {
		canonical.Path = strings.ReplaceAll(canonical.Path, " ", "_")
		canonical.RawPath = ""
	}
	if len(canonical.Path) > 1 {
		canonical.Path = strings.TrimRight(canonical.Path, "/")
		if canonical.Path == "" {
			canonical.Path = "/"
		}
		canonical.RawPath = strings.TrimRight(canonical.RawPath, "/")
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	canonical.RawQuery = sortQuery(canonical.RawQuery)
	canonical.ForceQuery = false

	return canonical
}

// CanonicalString parses raw and returns its canonical string form.
func CanonicalString(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("not an absolute url: %q", raw)
	}
	canonical := Canonicalize(*parsed)
	return canonical.String(), nil
}

// Resolve resolves href against base and canonicalizes the result.
func Resolve(base url.URL, href string) (url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return url.URL{}, err
	}
	return Canonicalize(*base.ResolveReference(ref)), nil
}

// IsWikipediaHost reports whether host belongs to any Wikipedia edition.
func IsWikipediaHost(host string) bool {
	host = strings.ToLower(host)
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// WikiTitle returns the page title encoded in a /wiki/ path with underscores
// turned back into spaces, or "" when the path is not a wiki page.
func WikiTitle(u url.URL) string {
	const prefix = "/wiki/"
	if !strings.HasPrefix(u.Path, prefix) {
		return ""
	}
	return strings.ReplaceAll(strings.TrimPrefix(u.Path, prefix), "_", " ")
}

func sortQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	parts := strings.Split(rawQuery, "&")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ki, _, _ := strings.Cut(kept[i], "=")
		kj, _, _ := strings.Cut(kept[j], "=")
		return ki < kj
	})
	return strings.Join(kept, "&")
}
