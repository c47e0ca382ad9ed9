package domain

// Discovery sources for candidate URLs.
const (
	SourceListingPage = "listing"
	SourceSiteMap     = "sitemap"
)

// CandidateURL is a raw absolute URL surfaced during discovery.
// It exists only within one job's working set.
type CandidateURL struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// ClassifiedURL is a candidate URL after classification and canonicalization.
type ClassifiedURL struct {
	CandidateURL

	IsProduct    bool   `json:"is_product"`
	CanonicalKey string `json:"canonical_key"`
}
