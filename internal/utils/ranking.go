package utils

import (
	"math"
	"time"
)

// HotEpoch is the fixed reference instant for the hot-score time term.
// Changing it shifts every hot score by the same constant, so it must stay
// fixed for the lifetime of the data.
var HotEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// hotDecaySeconds controls how fast rankings age: a post loses one unit of
// hot score every 45000 seconds (12.5 hours) of age relative to newer posts.
const hotDecaySeconds = 45000.0

// HotScore computes the time-decayed ranking value for a post:
//
//	sign(score) * log10(max(|score|, 1)) + secondsSinceEpoch(createdAt) / 45000
//
// The log term makes the first ten votes matter as much as the next hundred;
// the time term gives newer posts a fixed head start, so old posts drift
// down without ever being recomputed. Pure in (score, createdAt): same
// inputs always give the same value.
//
// For a fixed age, the value is non-decreasing in score; for a fixed score,
// an older post never outranks a newer one. score <= 0 is smooth: zero maps
// to a zero order term, negatives mirror positives with the sign flipped.
func HotScore(score int, createdAt time.Time) float64 {
	var order float64
	switch {
	case score > 0:
		order = math.Log10(math.Max(float64(score), 1))
	case score < 0:
		order = -math.Log10(math.Max(float64(-score), 1))
	}

	return order + createdAt.Sub(HotEpoch).Seconds()/hotDecaySeconds
}

// ControversyScore ranks items that draw heavy, evenly split voting.
// High totals with a near-zero net score rank highest.
func ControversyScore(upvotes, downvotes int) float64 {
	total := upvotes + downvotes
	if total == 0 {
		return 0
	}
	balance := math.Abs(float64(upvotes-downvotes)) / float64(total)
	return float64(total) * (1 - balance)
}
