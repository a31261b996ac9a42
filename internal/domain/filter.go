package domain

import "strings"

// Selection holds the active search, filter and sort criteria for a catalog
// query. The zero value selects everything in store order.
type Selection struct {
	// Query is matched as a case-insensitive substring against the
	// name/company/category projections.
	Query string

	// ProteinTypes are category labels combined with OR semantics
	// (e.g. "WPC", "WPI", "WPH", "blend").
	ProteinTypes []string

	// FlavorBuckets are taxonomy buckets combined with OR semantics.
	FlavorBuckets []FlavorBucket

	SortKey SortKey

	// ClientID identifies the caller issuing the selection, scoping
	// newest-request-wins tracking to that caller alone. It never
	// participates in matching or cache keying. Empty means untracked:
	// the search always runs to completion.
	ClientID string
}

// Matches is the pure inclusion predicate for a single entry under this
// selection. Individual filters are independent, so their application
// order never changes the result set.
func (s Selection) Matches(e *CatalogEntry) bool {
	return s.matchesQuery(e) && s.matchesProtein(e) && s.matchesFlavor(e)
}

func (s Selection) matchesQuery(e *CatalogEntry) bool {
	query := NormalizeText(s.Query)
	if query == "" {
		return true
	}

	return strings.Contains(e.NameLower, query) ||
		strings.Contains(e.CompanyLower, query) ||
		strings.Contains(e.CategoryLower, query)
}

func (s Selection) matchesProtein(e *CatalogEntry) bool {
	if len(s.ProteinTypes) == 0 {
		return true
	}

	category := NormalizeText(e.Category)
	for _, label := range s.ProteinTypes {
		if label = NormalizeText(label); label == "" {
			continue
		}
		if strings.Contains(category, label) {
			return true
		}
	}

	return false
}

func (s Selection) matchesFlavor(e *CatalogEntry) bool {
	if len(s.FlavorBuckets) == 0 {
		return true
	}

	for _, bucket := range s.FlavorBuckets {
		if e.MatchesFlavor(bucket) {
			return true
		}
	}

	return false
}

// Filter applies the selection predicate to a fetched entry list,
// preserving the input order.
func (s Selection) Filter(entries []*CatalogEntry) []*CatalogEntry {
	filtered := make([]*CatalogEntry, 0, len(entries))
	for _, e := range entries {
		if s.Matches(e) {
			filtered = append(filtered, e)
		}
	}

	return filtered
}
