// Package classify decides whether a discovered URL points at a product
// detail page. The heuristics are an explicit, ordered rule list evaluated
// first-match-wins, so rule order and coverage are testable in isolation.
package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// Verdict is the outcome of a matched rule.
type Verdict int

const (
	// VerdictReject marks the URL as not a product page.
	VerdictReject Verdict = iota
	// VerdictAccept marks the URL as a product page.
	VerdictAccept
)

const (
	// minPathLength is the shortest path that can plausibly identify a product.
	minPathLength = 6
	// minHTMLLeafLength is the shortest .html leaf segment accepted on its own.
	minHTMLLeafLength = 12
	// minLongLeafLength is the threshold for the hyphenated-leaf heuristic.
	minLongLeafLength = 20
	// minDeepPathSegments is the path depth required by the hyphenated-leaf heuristic.
	minDeepPathSegments = 2
)

// pathDenylist lists path substrings that identify navigation and utility
// pages. A match anywhere in the path rejects the URL.
var pathDenylist = []string{
	"/cart", "/checkout", "/account", "/login", "/register", "/wishlist",
	"/search", "/returns", "/shipping", "/privacy", "/terms", "/faq",
	"/contact", "/blog", "/news", "/brands/", "/brand/", "/stores/",
	"/store-locator", "/size-guide", "/sizeguide", "/size_guide",
	"/affiliate", "/newsletter", "/customer-service", "/help",
	".pdf", ".doc", ".xml", ".txt",
}

var (
	// numericCategoryPattern matches category listings like /12-shoes or
	// /123-new-arrivals: a short numeric id followed by a slug.
	numericCategoryPattern = regexp.MustCompile(`^/\d{1,3}-[a-z0-9-]+/?$`)

	// collectionPattern matches bare collection/category pages with no
	// product segment below them.
	collectionPattern = regexp.MustCompile(`^/(?:collections|collection|categories|category|c)/[a-z0-9_-]+/?$`)

	// productIDHTMLPattern matches platform URLs of the form
	// /12345-some-slug.html (5+ digit id, slug, .html suffix).
	productIDHTMLPattern = regexp.MustCompile(`/\d{5,}-[a-z0-9-]+\.html$`)

	// leafNumericIDPattern matches leaf segments led by a numeric id.
	leafNumericIDPattern = regexp.MustCompile(`^\d{4,}[-_]`)
)

// target carries the parsed pieces of one URL through rule evaluation.
type target struct {
	path     string
	segments []string
	leaf     string
	custom   []string
}

// rule pairs a predicate with the verdict it produces when matched.
type rule struct {
	name    string
	match   func(t *target) bool
	verdict Verdict
}

// rules is the ordered chain. The first matching rule decides.
var rules = []rule{
	{"short-path", matchShortPath, VerdictReject},
	{"denylist", matchDenylist, VerdictReject},
	{"numeric-category", matchNumericCategory, VerdictReject},
	{"custom-pattern", matchCustomPattern, VerdictAccept},
	{"products-segment", matchProductsSegment, VerdictAccept},
	{"numeric-id-html", matchNumericIDHTML, VerdictAccept},
	{"html-leaf", matchHTMLLeaf, VerdictAccept},
	{"leaf-numeric-id", matchLeafNumericID, VerdictAccept},
	{"item-segment", matchItemSegment, VerdictAccept},
	{"long-hyphenated-leaf", matchLongHyphenatedLeaf, VerdictAccept},
}

// IsProductURL reports whether rawURL looks like a product detail page.
// It is total over any string input: malformed URLs classify as false.
// customPatterns are competitor-specific overrides, each either a literal
// path substring or a regular expression starting with '^'.
func IsProductURL(rawURL, baseURL string, customPatterns []string) bool {
	t, ok := parseTarget(rawURL, customPatterns)
	if !ok {
		return false
	}

	for i := range rules {
		if rules[i].match(t) {
			return rules[i].verdict == VerdictAccept
		}
	}

	return false
}

// MatchRule returns the name of the first rule that matches, or "" when the
// chain falls through to the default reject. Exposed for tests and filter
// reasons in the crawl log.
func MatchRule(rawURL string, customPatterns []string) string {
	t, ok := parseTarget(rawURL, customPatterns)
	if !ok {
		return "malformed-url"
	}

	for i := range rules {
		if rules[i].match(t) {
			return rules[i].name
		}
	}

	return ""
}

// parseTarget parses rawURL into the pieces the rules inspect.
func parseTarget(rawURL string, customPatterns []string) (*target, bool) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, false
	}

	path := strings.ToLower(strings.TrimRight(parsed.Path, "/"))
	segments := splitSegments(path)

	t := &target{
		path:     path,
		segments: segments,
		custom:   customPatterns,
	}
	if len(segments) > 0 {
		t.leaf = segments[len(segments)-1]
	}

	return t, true
}

// splitSegments returns the non-empty path segments.
func splitSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

func matchShortPath(t *target) bool {
	return t.path == "" || t.path == "/" || len(t.path) < minPathLength
}

func matchDenylist(t *target) bool {
	for _, entry := range pathDenylist {
		if strings.Contains(t.path, entry) {
			return true
		}
	}
	return false
}

func matchNumericCategory(t *target) bool {
	return numericCategoryPattern.MatchString(t.path) || collectionPattern.MatchString(t.path)
}

func matchCustomPattern(t *target) bool {
	for _, pattern := range t.custom {
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "^") {
			// The path is lowercased, so the pattern must match
			// case-insensitively too.
			if re, err := regexp.Compile("(?i)" + pattern); err == nil && re.MatchString(t.path) {
				return true
			}
			continue
		}
		if strings.Contains(t.path, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

func matchProductsSegment(t *target) bool {
	for i, seg := range t.segments {
		if seg == "products" || seg == "product" {
			// The segment must carry a non-empty remainder.
			return i < len(t.segments)-1
		}
	}
	return false
}

func matchNumericIDHTML(t *target) bool {
	return productIDHTMLPattern.MatchString(t.path)
}

func matchHTMLLeaf(t *target) bool {
	return strings.HasSuffix(t.leaf, ".html") && len(t.leaf) >= minHTMLLeafLength
}

func matchLeafNumericID(t *target) bool {
	return leafNumericIDPattern.MatchString(t.leaf)
}

func matchItemSegment(t *target) bool {
	for i, seg := range t.segments {
		if seg == "p" || seg == "item" || seg == "artikel" {
			return i < len(t.segments)-1
		}
	}
	return false
}

func matchLongHyphenatedLeaf(t *target) bool {
	return len(t.segments) >= minDeepPathSegments &&
		len(t.leaf) >= minLongLeafLength &&
		strings.Contains(t.leaf, "-")
}

// MatchesExcludedKeyword returns the first excluded-category keyword found in
// s (case-insensitive), and whether one matched.
func MatchesExcludedKeyword(s string, keywords []string) (string, bool) {
	lowered := strings.ToLower(s)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return kw, true
		}
	}
	return "", false
}
