package report

import (
	"fmt"
	"strings"
)

// Rating is the normalized analyst recommendation.
type Rating string

// Rating constants.
const (
	RatingBuy  Rating = "buy"
	RatingHold Rating = "hold"
	RatingSell Rating = "sell"
)

// Keyword families for rating normalization. Matching is case-insensitive
// substring containment, buy family before sell family; anything else is hold.
var (
	buyKeywords  = []string{"buy", "매수", "strong buy", "적극매수"}
	sellKeywords = []string{"sell", "매도", "strong sell", "적극매도"}
)

// NormalizeRating maps a raw analyst rating string onto the fixed scale.
// The buy family wins over the sell family when both match, so mixed
// phrasings like "downgraded from Strong Buy" normalize to buy. That
// precedence is part of the contract; changing it reclassifies history.
func NormalizeRating(raw string) Rating {
	lowered := strings.ToLower(raw)

	for _, kw := range buyKeywords {
		if strings.Contains(lowered, kw) {
			return RatingBuy
		}
	}
	for _, kw := range sellKeywords {
		if strings.Contains(lowered, kw) {
			return RatingSell
		}
	}
	return RatingHold
}

// ParseRating validates a stored normalized rating. Anything outside the
// fixed scale is a malformed row.
func ParseRating(s string) (Rating, error) {
	switch r := Rating(s); r {
	case RatingBuy, RatingHold, RatingSell:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rating %q", s)
	}
}
