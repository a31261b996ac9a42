package domain

// FlavorBucket is a canonical flavor category used for filtering.
type FlavorBucket string

const (
	FlavorChocolate  FlavorBucket = "chocolate"
	FlavorStrawberry FlavorBucket = "strawberry"
	FlavorVanilla    FlavorBucket = "vanilla"
	FlavorBanana     FlavorBucket = "banana"
	FlavorUnflavored FlavorBucket = "unflavored"
	FlavorOther      FlavorBucket = "other"
)

// flavorSynonyms maps every named bucket to its fixed synonym tag set.
// The "other" bucket is intentionally absent: it is always computed as the
// complement of the union of these sets so it cannot drift when synonyms
// are added.
var flavorSynonyms = map[FlavorBucket][]string{
	FlavorChocolate:  {"chocolate", "choco", "cocoa"},
	FlavorStrawberry: {"strawberry", "berry"},
	FlavorVanilla:    {"vanilla"},
	FlavorBanana:     {"banana"},
	FlavorUnflavored: {"unflavored", "plain", "natural"},
}

// FlavorBuckets returns all selectable buckets in display order.
func FlavorBuckets() []FlavorBucket {
	return []FlavorBucket{
		FlavorChocolate,
		FlavorStrawberry,
		FlavorVanilla,
		FlavorBanana,
		FlavorUnflavored,
		FlavorOther,
	}
}

// ValidFlavorBucket reports whether b is a known bucket.
func ValidFlavorBucket(b FlavorBucket) bool {
	if b == FlavorOther {
		return true
	}
	_, ok := flavorSynonyms[b]

	return ok
}

// FlavorSynonyms returns the synonym tag set for a named bucket.
// Returns nil for "other" and unknown buckets.
func FlavorSynonyms(b FlavorBucket) []string {
	return flavorSynonyms[b]
}

// MatchesFlavor reports whether an entry's flavor tags fall into the given
// bucket.
//
// A named bucket matches when the tag set intersects its synonym set.
// The "other" bucket matches when the tag set is non-empty and has no
// intersection with any named bucket's synonyms. An entry with no flavor
// tags matches only the "unflavored" bucket, never "other".
func (e *CatalogEntry) MatchesFlavor(bucket FlavorBucket) bool {
	if len(e.Flavors) == 0 {
		return bucket == FlavorUnflavored
	}

	if bucket == FlavorOther {
		for _, tag := range e.Flavors {
			if namedBucketFor(tag) != "" {
				return false
			}
		}

		return true
	}

	synonyms, ok := flavorSynonyms[bucket]
	if !ok {
		return false
	}
	for _, tag := range e.Flavors {
		if containsTag(synonyms, NormalizeText(tag)) {
			return true
		}
	}

	return false
}

// namedBucketFor returns the named bucket a tag belongs to, or "" when the
// tag falls outside every named synonym set.
func namedBucketFor(tag string) FlavorBucket {
	normalized := NormalizeText(tag)
	for bucket, synonyms := range flavorSynonyms {
		if containsTag(synonyms, normalized) {
			return bucket
		}
	}

	return ""
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}

	return false
}
