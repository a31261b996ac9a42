// Package domain contains the core business logic and entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"strings"
	"time"
)

// CatalogEntry represents a single supplement product in the catalog.
// This is the core domain entity used throughout the application.
type CatalogEntry struct {
	// Primary identifier (store-assigned document id)
	ID string `json:"id"`

	// Canonical fields
	Name     string   `json:"name"`
	Company  string   `json:"company"`
	Category string   `json:"category"` // protein type, free text (e.g. "WPI/WPC blend")
	Flavors  []string `json:"flavors,omitempty"`

	// Pricing and nutrition
	Price                  float64 `json:"price"`
	ServingSizeGrams       float64 `json:"serving_size_grams"`
	ProteinPerServingGrams float64 `json:"protein_per_serving_grams"`
	PricePerProteinUnit    float64 `json:"price_per_protein_unit"`

	// Display-only pass-through fields
	Description string `json:"description,omitempty"`
	Nutrient    string `json:"nutrient,omitempty"`

	// Denormalized review aggregates. Mutated only through the review
	// transaction path; no other code writes these two fields.
	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`

	// Lowercase search projections derived from the canonical fields.
	// May lag the canonical fields transiently; the projector corrects
	// them on the next query cycle.
	NameLower     string `json:"name_lower"`
	CompanyLower  string `json:"company_lower"`
	CategoryLower string `json:"category_lower"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Projection holds the lowercase search fields derived from an entry's
// canonical fields.
type Projection struct {
	NameLower     string
	CompanyLower  string
	CategoryLower string
}

// NormalizeText is the single normalization rule for search projections
// and query terms: trim surrounding whitespace, then lowercase.
func NormalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DeriveProjection computes the projection an entry should carry given its
// current canonical fields.
func (e *CatalogEntry) DeriveProjection() Projection {
	return Projection{
		NameLower:     NormalizeText(e.Name),
		CompanyLower:  NormalizeText(e.Company),
		CategoryLower: NormalizeText(e.Category),
	}
}

// ProjectionStale reports whether the stored projection fields no longer
// match the canonical fields.
func (e *CatalogEntry) ProjectionStale() bool {
	want := e.DeriveProjection()

	return e.NameLower != want.NameLower ||
		e.CompanyLower != want.CompanyLower ||
		e.CategoryLower != want.CategoryLower
}

// ApplyProjection overwrites the entry's projection fields.
func (e *CatalogEntry) ApplyProjection(p Projection) {
	e.NameLower = p.NameLower
	e.CompanyLower = p.CompanyLower
	e.CategoryLower = p.CategoryLower
}
