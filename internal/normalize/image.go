package normalize

import (
	"net/url"
	"strings"
)

// imageExtensions are file extensions accepted as image URLs.
var imageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".avif", ".svg",
}

// imageHostSignals are path substrings that identify image hosting even
// without a recognized extension (CDN rewriters often drop it).
var imageHostSignals = []string{
	"cdn", "/media/", "/image", "/images/", "/img/", "/asset", "/static/",
}

// pageURLSignals are path substrings that identify a mis-extracted page URL
// rather than an image.
var pageURLSignals = []string{
	"/products/", "/product/", "/category/", "/categories/", "/collections/", "/shop/",
}

// CleanImageURL validates and absolutizes an extracted image URL against the
// competitor's base origin. Returns nil when the value is not a usable image
// URL: page URLs, unparsable input, and URLs without an image signal are all
// rejected.
func CleanImageURL(raw, baseURL string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	// A .html suffix or a product/category path means the extractor
	// returned a page URL, not an image.
	lowered := strings.ToLower(s)
	if strings.HasSuffix(trimQuery(lowered), ".html") {
		return nil
	}
	for _, signal := range pageURLSignals {
		if strings.Contains(lowered, signal) {
			return nil
		}
	}

	s = repairDoubledURL(s)
	s = absolutize(s, baseURL)
	if s == "" {
		return nil
	}

	if !looksLikeImage(strings.ToLower(s)) {
		return nil
	}

	return &s
}

// trimQuery drops the query string and fragment.
func trimQuery(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}

// repairDoubledURL keeps the second URL when two absolute URLs were
// concatenated, e.g. "https://site.comhttps://cdn.site.com/a.jpg". Only a
// full scheme marks the split point, so paths that merely contain "http"
// survive intact.
func repairDoubledURL(s string) string {
	i := strings.LastIndex(s, "https://")
	if j := strings.LastIndex(s, "http://"); j > i {
		i = j
	}
	if i > 0 {
		return s[i:]
	}
	return s
}

// absolutize expands protocol-relative and root-relative forms against the
// base origin. Returns "" when the result cannot be parsed.
func absolutize(s, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" {
		base = &url.URL{Scheme: "https"}
	}

	switch {
	case strings.HasPrefix(s, "//"):
		s = base.Scheme + ":" + s
	case strings.HasPrefix(s, "/"):
		if base.Host == "" {
			return ""
		}
		s = base.Scheme + "://" + base.Host + s
	}

	parsed, parseErr := url.Parse(s)
	if parseErr != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}

	return parsed.String()
}

// looksLikeImage reports whether the URL carries an image extension or a
// recognized image-hosting path signal.
func looksLikeImage(lowered string) bool {
	path := trimQuery(lowered)

	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	for _, signal := range imageHostSignals {
		if strings.Contains(lowered, signal) {
			return true
		}
	}

	return false
}
