package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// projected builds an entry with derived search projections, the state the
// projector guarantees before filtering runs.
func projected(id, name, company, category string, flavors ...string) *CatalogEntry {
	e := &CatalogEntry{
		ID:       id,
		Name:     name,
		Company:  company,
		Category: category,
		Flavors:  flavors,
	}
	e.ApplyProjection(e.DeriveProjection())

	return e
}

func ids(entries []*CatalogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}

	return out
}

func TestSelection_QueryFilter(t *testing.T) {
	entries := []*CatalogEntry{
		projected("a", "Whey Gold", "Optimum", "WPI"),
		projected("b", "Soy Blend", "Vega", "Soy"),
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "substring on name",
			query:    "wh",
			expected: []string{"a"},
		},
		{
			name:     "case insensitive",
			query:    "WHEY",
			expected: []string{"a"},
		},
		{
			name:     "matches company",
			query:    "vega",
			expected: []string{"b"},
		},
		{
			name:     "matches category",
			query:    "soy",
			expected: []string{"b"},
		},
		{
			name:     "surrounding whitespace trimmed",
			query:    "  gold  ",
			expected: []string{"a"},
		},
		{
			name:     "empty query keeps everything",
			query:    "",
			expected: []string{"a", "b"},
		},
		{
			name:     "no match is a valid empty result",
			query:    "casein",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{Query: tt.query}
			assert.Equal(t, tt.expected, ids(sel.Filter(entries)))
		})
	}
}

func TestSelection_ProteinFilter(t *testing.T) {
	entries := []*CatalogEntry{
		projected("a", "Gold Standard", "Optimum", "WPI/WPC blend"),
		projected("b", "Night Fuel", "Optimum", "Casein"),
		projected("c", "Hydro Iso", "Dymatize", "WPH"),
	}

	tests := []struct {
		name     string
		labels   []string
		expected []string
	}{
		{
			name:     "single label matches blend category",
			labels:   []string{"WPI"},
			expected: []string{"a"},
		},
		{
			name:     "or semantics across labels",
			labels:   []string{"WPI", "WPH"},
			expected: []string{"a", "c"},
		},
		{
			name:     "case insensitive label",
			labels:   []string{"casein"},
			expected: []string{"b"},
		},
		{
			name:     "no selection keeps everything",
			labels:   nil,
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "blank labels are ignored",
			labels:   []string{"", "  "},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{ProteinTypes: tt.labels}
			assert.Equal(t, tt.expected, ids(sel.Filter(entries)))
		})
	}
}

func TestSelection_FlavorFilter(t *testing.T) {
	entries := []*CatalogEntry{
		projected("a", "Choc Whey", "Optimum", "WPC", "choco"),
		projected("b", "Berry Whey", "Optimum", "WPC", "strawberry"),
		projected("c", "Plain Whey", "Optimum", "WPC", "plain"),
		projected("d", "Matcha Whey", "Optimum", "WPC", "matcha"),
		projected("e", "Untagged Whey", "Optimum", "WPC"),
	}

	tests := []struct {
		name     string
		buckets  []FlavorBucket
		expected []string
	}{
		{
			name:     "synonym match",
			buckets:  []FlavorBucket{FlavorChocolate},
			expected: []string{"a"},
		},
		{
			name:     "or semantics across buckets",
			buckets:  []FlavorBucket{FlavorChocolate, FlavorStrawberry},
			expected: []string{"a", "b"},
		},
		{
			name:     "other matches only tags outside every named bucket",
			buckets:  []FlavorBucket{FlavorOther},
			expected: []string{"d"},
		},
		{
			name:     "empty flavor set matches unflavored",
			buckets:  []FlavorBucket{FlavorUnflavored},
			expected: []string{"c", "e"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := Selection{FlavorBuckets: tt.buckets}
			assert.Equal(t, tt.expected, ids(sel.Filter(entries)))
		})
	}
}

// TestSelection_FilterOrderIndependence verifies that applying the protein
// filter then the flavor filter yields the same set as the reverse order.
func TestSelection_FilterOrderIndependence(t *testing.T) {
	entries := []*CatalogEntry{
		projected("a", "Choc WPI", "Optimum", "WPI", "chocolate"),
		projected("b", "Choc Casein", "Optimum", "Casein", "chocolate"),
		projected("c", "Berry WPI", "Optimum", "WPI", "strawberry"),
		projected("d", "Plain WPC", "Optimum", "WPC"),
	}

	protein := Selection{ProteinTypes: []string{"WPI"}}
	flavor := Selection{FlavorBuckets: []FlavorBucket{FlavorChocolate}}

	proteinFirst := flavor.Filter(protein.Filter(entries))
	flavorFirst := protein.Filter(flavor.Filter(entries))

	assert.Equal(t, ids(proteinFirst), ids(flavorFirst))
	assert.Equal(t, []string{"a"}, ids(proteinFirst))
}
