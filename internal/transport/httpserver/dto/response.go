package dto

import (
	"time"

	"supplement-catalog-service/internal/app/service"
	"supplement-catalog-service/internal/domain"
)

// EntryResponse represents a single catalog entry in the response.
type EntryResponse struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Company  string   `json:"company"`
	Category string   `json:"category"`
	Flavors  []string `json:"flavors,omitempty"`

	Price                  float64 `json:"price"`
	ServingSizeGrams       float64 `json:"serving_size_grams,omitempty"`
	ProteinPerServingGrams float64 `json:"protein_per_serving_grams,omitempty"`
	PricePerProteinUnit    float64 `json:"price_per_protein_unit,omitempty"`

	Description string `json:"description,omitempty"`
	Nutrient    string `json:"nutrient,omitempty"`

	ReviewCount   int64   `json:"review_count"`
	AverageRating float64 `json:"average_rating"`

	UpdatedAt string `json:"updated_at"`
}

// FromDomainEntry converts a domain.CatalogEntry to an EntryResponse.
func FromDomainEntry(e *domain.CatalogEntry) EntryResponse {
	return EntryResponse{
		ID:                     e.ID,
		Name:                   e.Name,
		Company:                e.Company,
		Category:               e.Category,
		Flavors:                e.Flavors,
		Price:                  e.Price,
		ServingSizeGrams:       e.ServingSizeGrams,
		ProteinPerServingGrams: e.ProteinPerServingGrams,
		PricePerProteinUnit:    e.PricePerProteinUnit,
		Description:            e.Description,
		Nutrient:               e.Nutrient,
		ReviewCount:            e.ReviewCount,
		AverageRating:          e.AverageRating,
		UpdatedAt:              e.UpdatedAt.Format(time.RFC3339),
	}
}

// SearchResponse represents the catalog search response.
type SearchResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// FromSearchResult converts a service.SearchResult to a SearchResponse.
func FromSearchResult(result *service.SearchResult) SearchResponse {
	entries := make([]EntryResponse, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = FromDomainEntry(e)
	}

	return SearchResponse{
		Entries: entries,
		Total:   result.Total,
	}
}

// ReviewResponse represents a single review in the response.
type ReviewResponse struct {
	ID           string `json:"id"`
	AuthorHandle string `json:"author_handle"`
	Rating       int    `json:"rating"`
	Text         string `json:"text"`
	CreatedAt    string `json:"created_at"`
}

// FromDomainReview converts a domain.Review to a ReviewResponse.
func FromDomainReview(r *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:           r.ID,
		AuthorHandle: r.AuthorHandle,
		Rating:       r.Rating,
		Text:         r.Text,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

// ReviewsResponse represents a list of reviews for an entry.
type ReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int              `json:"total"`
}

// FromDomainReviews converts a review slice to a ReviewsResponse.
func FromDomainReviews(reviews []*domain.Review) ReviewsResponse {
	out := make([]ReviewResponse, len(reviews))
	for i, r := range reviews {
		out[i] = FromDomainReview(r)
	}

	return ReviewsResponse{Reviews: out, Total: len(out)}
}

// ToggleFavoriteResponse reports the membership state after a toggle.
type ToggleFavoriteResponse struct {
	EntryID  string `json:"entry_id"`
	Favorite bool   `json:"favorite"`
}

// FavoritesResponse represents the resolved favorites list.
type FavoritesResponse struct {
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// AuditResponse represents the result of a counter reconciliation run.
type AuditResponse struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

// FromAuditResult converts a service.AuditResult to an AuditResponse.
func FromAuditResult(result service.AuditResult) AuditResponse {
	return AuditResponse{
		Scanned:  result.Scanned,
		Repaired: result.Repaired,
		Failed:   result.Failed,
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
