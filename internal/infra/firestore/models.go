package firestore

import (
	"errors"
	"fmt"
	"time"

	"supplement-catalog-service/internal/domain"
)

// Collection layout. Reviews live in a sub-collection under their entry so
// they share the entry's transaction scope and lifecycle.
const (
	entriesCollection = "supplements"
	reviewsCollection = "reviews"
	usersCollection   = "users"
)

// entryDoc is the typed document schema for a catalog entry. Decoding goes
// through DataTo and fails closed: a document that does not fit this schema
// is an error, never a zero-valued entry. DataTo only rejects type
// mismatches, so decoders also run validate to catch absent required
// fields that would otherwise slip through as zero values.
type entryDoc struct {
	Name     string   `firestore:"name"`
	Company  string   `firestore:"company"`
	Category string   `firestore:"category"`
	Flavors  []string `firestore:"flavors"`

	Price                  float64 `firestore:"price"`
	ServingSizeGrams       float64 `firestore:"servingSizeGrams"`
	ProteinPerServingGrams float64 `firestore:"proteinPerServingGrams"`
	PricePerProteinUnit    float64 `firestore:"pricePerProteinUnit"`

	Description string `firestore:"description"`
	Nutrient    string `firestore:"nutrient"`

	ReviewCount   int64   `firestore:"reviewCount"`
	AverageRating float64 `firestore:"averageRating"`

	NameLower     string `firestore:"nameLower"`
	CompanyLower  string `firestore:"companyLower"`
	CategoryLower string `firestore:"categoryLower"`

	UpdatedAt time.Time `firestore:"updatedAt,serverTimestamp"`
}

// validate checks the required fields DataTo cannot, since a missing
// field decodes to its zero value.
func (d *entryDoc) validate() error {
	if d.Name == "" {
		return errors.New("missing required field name")
	}

	return nil
}

func (d *entryDoc) toDomain(id string) *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ID:                     id,
		Name:                   d.Name,
		Company:                d.Company,
		Category:               d.Category,
		Flavors:                d.Flavors,
		Price:                  d.Price,
		ServingSizeGrams:       d.ServingSizeGrams,
		ProteinPerServingGrams: d.ProteinPerServingGrams,
		PricePerProteinUnit:    d.PricePerProteinUnit,
		Description:            d.Description,
		Nutrient:               d.Nutrient,
		ReviewCount:            d.ReviewCount,
		AverageRating:          d.AverageRating,
		NameLower:              d.NameLower,
		CompanyLower:           d.CompanyLower,
		CategoryLower:          d.CategoryLower,
		UpdatedAt:              d.UpdatedAt,
	}
}

// reviewDoc is the typed document schema for a review. CreatedAt is
// server-assigned on write.
type reviewDoc struct {
	AuthorHandle string    `firestore:"authorHandle"`
	Text         string    `firestore:"text"`
	Rating       int       `firestore:"rating"`
	CreatedAt    time.Time `firestore:"createdAt,serverTimestamp"`
}

func (d *reviewDoc) validate() error {
	if d.AuthorHandle == "" {
		return errors.New("missing required field authorHandle")
	}
	if !domain.ValidRating(d.Rating) {
		return fmt.Errorf("rating %d outside valid range", d.Rating)
	}

	return nil
}

func (d *reviewDoc) toDomain(id string) *domain.Review {
	return &domain.Review{
		ID:           id,
		AuthorHandle: d.AuthorHandle,
		Text:         d.Text,
		Rating:       d.Rating,
		CreatedAt:    d.CreatedAt,
	}
}

// userDoc is the typed document schema for a user profile.
type userDoc struct {
	Nickname  string   `firestore:"nickname"`
	Favorites []string `firestore:"favorites"`
}

func (d *userDoc) toDomain(uid string) *domain.UserProfile {
	return &domain.UserProfile{
		UID:       uid,
		Nickname:  d.Nickname,
		Favorites: d.Favorites,
	}
}
