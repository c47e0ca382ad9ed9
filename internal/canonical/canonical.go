// Package canonical derives stable product keys from URLs so the same
// product is recognized across size, color, and tracking variations.
// Keys are deterministic: equivalent URLs always produce identical keys.
package canonical

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/jonesrussell/shopcrawl/internal/domain"
)

var (
	// numericIDHTMLPattern captures the platform product id from URLs of
	// the form /12345-some-slug.html.
	numericIDHTMLPattern = regexp.MustCompile(`/(\d{5,})-[a-z0-9-]+\.html`)

	// productsHandlePattern captures the handle from /products/{handle}.
	productsHandlePattern = regexp.MustCompile(`/products?/([a-z0-9_-]+)`)

	// leafNumericIDPattern captures a leading numeric id on the final
	// path segment.
	leafNumericIDPattern = regexp.MustCompile(`^(\d{4,})[-_.]`)

	// sizeTokenPattern matches trailing size variant tokens on a slug:
	// letter sizes XS through XXXL, textual sizes, and 2-3 digit numerics.
	sizeTokenPattern = regexp.MustCompile(`^(?:xs|s|m|l|xl|xxl|xxxl|2xl|3xl|small|medium|large|\d{2,3})$`)
)

// Key maps a URL to its canonical product key. Resolution order: platform
// numeric id, product handle, leading numeric id on the leaf segment, and
// finally the variant-stripped path. Total over any string input.
func Key(rawURL string) string {
	path := extractPath(rawURL)

	if m := numericIDHTMLPattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}

	if m := productsHandlePattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}

	segments := strings.Split(strings.Trim(path, "/"), "/")
	leaf := segments[len(segments)-1]

	if m := leafNumericIDPattern.FindStringSubmatch(leaf); m != nil {
		return m[1]
	}

	return stripVariantSuffixes(path)
}

// extractPath returns the lowercased path with the query and fragment
// stripped. Unparsable input falls back to truncating at '?' and '#'.
func extractPath(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		return strings.ToLower(strings.TrimRight(parsed.Path, "/"))
	}

	s := rawURL
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimRight(s, "/"))
}

// stripVariantSuffixes removes trailing size tokens from the leaf slug,
// e.g. /shop/wool-sweater-blue-xl -> /shop/wool-sweater-blue.
// The .html suffix is preserved when present.
func stripVariantSuffixes(path string) string {
	dir := ""
	leaf := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		dir = path[:i+1]
		leaf = path[i+1:]
	}

	suffix := ""
	if strings.HasSuffix(leaf, ".html") {
		suffix = ".html"
		leaf = strings.TrimSuffix(leaf, ".html")
	}

	tokens := strings.Split(leaf, "-")
	for len(tokens) > 1 && sizeTokenPattern.MatchString(tokens[len(tokens)-1]) {
		tokens = tokens[:len(tokens)-1]
	}

	return dir + strings.Join(tokens, "-") + suffix
}

// DedupeBatch splits entries whose canonical key repeats within the batch.
// The first occurrence wins and insertion order is preserved; the dropped
// entries are returned so callers can record each exclusion.
func DedupeBatch(urls []domain.ClassifiedURL) (kept, dropped []domain.ClassifiedURL) {
	seen := make(map[string]struct{}, len(urls))
	kept = make([]domain.ClassifiedURL, 0, len(urls))

	for _, u := range urls {
		if _, dup := seen[u.CanonicalKey]; dup {
			dropped = append(dropped, u)
			continue
		}
		seen[u.CanonicalKey] = struct{}{}
		kept = append(kept, u)
	}

	return kept, dropped
}
