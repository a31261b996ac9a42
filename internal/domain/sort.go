package domain

import "sort"

// SortKey selects the ordering applied to filtered results.
type SortKey string

const (
	SortNone        SortKey = ""             // store order
	SortPriceAsc    SortKey = "price_asc"    // cheapest first
	SortRatingDesc  SortKey = "rating_desc"  // best rated first
	SortRatingAsc   SortKey = "rating_asc"   // worst rated first
	SortReviewsDesc SortKey = "reviews_desc" // most reviewed first
)

// ValidSortKey reports whether k is a supported sort key.
func ValidSortKey(k SortKey) bool {
	switch k {
	case SortNone, SortPriceAsc, SortRatingDesc, SortRatingAsc, SortReviewsDesc:
		return true
	default:
		return false
	}
}

// SortEntries orders entries in place by the given key. The order is total:
// entries with equal sort keys are tied off by store id ascending, so the
// same input always yields the same output.
func SortEntries(entries []*CatalogEntry, key SortKey) {
	if key == SortNone {
		return
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]

		switch key {
		case SortPriceAsc:
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		case SortRatingDesc:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating > b.AverageRating
			}
		case SortRatingAsc:
			if a.AverageRating != b.AverageRating {
				return a.AverageRating < b.AverageRating
			}
		case SortReviewsDesc:
			if a.ReviewCount != b.ReviewCount {
				return a.ReviewCount > b.ReviewCount
			}
		}

		return a.ID < b.ID
	})
}
