package extract

import (
	"fmt"
	"strings"
)

// BuildListingPrompt returns the natural-language instruction for a bulk
// listing extraction. Exclusion keywords are enumerated so the extractor
// skips excluded categories at the source.
func BuildListingPrompt(limit int, excludedKeywords []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Extract up to %d distinct products from this listing page. ", limit)
	b.WriteString("Return a JSON object with a \"products\" array; each entry has ")
	b.WriteString("\"name\", \"price\", \"image_url\", and \"product_url\". ")
	b.WriteString("Use the exact price text as displayed. ")
	b.WriteString("Only include actual products, never navigation links, banners, or category tiles.")

	if len(excludedKeywords) > 0 {
		fmt.Fprintf(&b, " Exclude any product belonging to these categories: %s.",
			strings.Join(excludedKeywords, ", "))
	}

	return b.String()
}

// BuildProductPrompt returns the instruction for a single product-page
// extraction.
func BuildProductPrompt(excludedKeywords []string) string {
	var b strings.Builder

	b.WriteString("Extract the product on this page. ")
	b.WriteString("Return a JSON object with a \"products\" array containing one entry with ")
	b.WriteString("\"name\", \"price\", \"image_url\", and \"product_url\". ")
	b.WriteString("Use the exact price text as displayed.")

	if len(excludedKeywords) > 0 {
		fmt.Fprintf(&b, " If the product belongs to one of these categories, return an empty array: %s.",
			strings.Join(excludedKeywords, ", "))
	}

	return b.String()
}
