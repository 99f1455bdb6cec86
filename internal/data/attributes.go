package data

import (
	"math"

	"github.com/KamilDonda/MovieRecommender/internal/validator"
)

// MovieAttribute is a named score attached to a movie, rendered by clients
// as a star-rating row (for example {"name": "plot", "score": 4.5}).
// Attributes have no identity of their own: they are stored with their movie,
// replaced wholesale on every overwrite, and deleted with it.
type MovieAttribute struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Star-rating bounds. Scores move in half-star steps, matching what a
// five-star widget can actually display.
const (
	MinAttributeScore = 0.0
	MaxAttributeScore = 5.0
)

// MaxAttributesPerMovie caps how many scored attributes one movie can carry.
const MaxAttributesPerMovie = 20

// ValidateAttributes records any problems with the attribute list in v.
// All messages share the "attributes" key so the client surfaces them
// against the rating section of its form.
func ValidateAttributes(v *validator.Validator, attributes []MovieAttribute) {
	v.Check(len(attributes) <= MaxAttributesPerMovie, "attributes", "must not contain more than 20 entries")

	names := make([]string, 0, len(attributes))
	for _, attribute := range attributes {
		names = append(names, attribute.Name)

		v.Check(attribute.Name != "", "attributes", "names must be provided")
		v.Check(len(attribute.Name) <= 100, "attributes", "names must not be more than 100 bytes long")
		v.Check(attribute.Score >= MinAttributeScore && attribute.Score <= MaxAttributeScore, "attributes", "scores must be between 0 and 5")
		v.Check(isHalfStep(attribute.Score), "attributes", "scores must be in half-star steps")
	}

	v.Check(validator.Unique(names), "attributes", "names must not contain duplicate values")
}

// isHalfStep reports whether the score lands exactly on a half-star boundary.
// Half values are exactly representable in a float64, so the comparison is
// safe for every score a client can legitimately send.
func isHalfStep(score float64) bool {
	doubled := score * 2
	return doubled == math.Trunc(doubled)
}
