package domain

import (
	"time"
)

// ExtractedProduct is the normalized output of one extraction, ready for
// insertion. Nil pointer fields mean the value was absent or unusable,
// not empty.
type ExtractedProduct struct {
	Name            string   `json:"name"`
	RawPrice        *string  `json:"raw_price,omitempty"`
	NormalizedPrice *float64 `json:"normalized_price,omitempty"`
	ImageURL        *string  `json:"image_url,omitempty"`
	SourceURL       string   `json:"source_url"`
	CanonicalURL    string   `json:"canonical_url"`
	CompetitorName  string   `json:"competitor_name"`
}

// Product is a persisted catalog row.
type Product struct {
	ID             string    `db:"id"              json:"id"`
	CompetitorName string    `db:"competitor_name" json:"competitor_name"`
	Name           string    `db:"name"            json:"name"`
	Price          *float64  `db:"price"           json:"price,omitempty"`
	RawPrice       *string   `db:"raw_price"       json:"raw_price,omitempty"`
	ImageURL       *string   `db:"image_url"       json:"image_url,omitempty"`
	SourceURL      string    `db:"source_url"      json:"source_url"`
	CanonicalURL   string    `db:"canonical_url"   json:"canonical_url"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}
