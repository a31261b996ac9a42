package domain

import (
	"math"
	"time"
)

// averageTolerance bounds how far a stored running mean may sit from a
// full recount before it counts as drift. The incremental update in
// NextAverage rounds once per review, so the two can differ in the last
// bits without any review having been lost.
const averageTolerance = 1e-9

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user-submitted rating and comment attached to a catalog entry.
// Reviews live in the entry's sub-collection and are exclusively owned by it.
type Review struct {
	ID           string    `json:"id"`
	AuthorHandle string    `json:"author_handle"`
	Text         string    `json:"text"`
	Rating       int       `json:"rating"` // 1..5
	CreatedAt    time.Time `json:"created_at"`
}

// ValidRating reports whether r is inside the accepted 1..5 range.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// NextAverage computes the running mean after appending one rating to an
// entry that currently has count reviews averaging avg.
//
// Under serialized transactions this keeps the denormalized average equal
// to the exact mean of all committed ratings.
func NextAverage(count int64, avg float64, rating int) float64 {
	return (avg*float64(count) + float64(rating)) / float64(count+1)
}

// AverageDrifted reports whether a stored average has genuinely diverged
// from a recomputed one. Differences within floating point rounding of
// the incremental update are not drift.
func AverageDrifted(stored, recomputed float64) bool {
	return math.Abs(stored-recomputed) > averageTolerance
}
