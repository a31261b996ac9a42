// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import (
	"strings"

	"supplement-catalog-service/internal/domain"
)

// SearchRequest represents the query parameters for searching the catalog.
// protein and flavor accept comma-separated lists.
type SearchRequest struct {
	Query   string `query:"q" validate:"max=200"`
	Protein string `query:"protein" validate:"max=200"`
	Flavor  string `query:"flavor" validate:"max=200"`
	Sort    string `query:"sort" validate:"omitempty,oneof=price_asc rating_desc rating_asc reviews_desc"`
}

// ToSelection converts SearchRequest to a domain.Selection. Blank items in
// the comma-separated lists are dropped so "?protein=WPI,," equals
// "?protein=WPI".
func (r *SearchRequest) ToSelection() domain.Selection {
	sel := domain.Selection{
		Query:   r.Query,
		SortKey: domain.SortKey(r.Sort),
	}

	sel.ProteinTypes = splitList(r.Protein)

	for _, f := range splitList(r.Flavor) {
		sel.FlavorBuckets = append(sel.FlavorBuckets, domain.FlavorBucket(f))
	}

	return sel
}

// InvalidFlavors returns the flavor values that do not name a known bucket.
func (r *SearchRequest) InvalidFlavors() []string {
	var bad []string
	for _, f := range splitList(r.Flavor) {
		if !domain.ValidFlavorBucket(domain.FlavorBucket(f)) {
			bad = append(bad, f)
		}
	}

	return bad
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}

	return out
}

// SubmitReviewRequest represents the request body for submitting a review.
// The author handle comes from the verified identity, not the body.
type SubmitReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"required,max=2000"`
}
