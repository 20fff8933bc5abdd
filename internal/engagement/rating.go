// Package engagement holds the pure aggregation and ranking rules behind
// ratings, bookmarks, trending and top-rated lists. Nothing here touches
// storage; services load rows and hand them in.
package engagement

import (
	"math"

	"inkwell/internal/model"
)

// ValidateRating checks that value is an integer score in [1,5].
func ValidateRating(value int) error {
	if value < model.MinRatingValue || value > model.MaxRatingValue {
		return model.NewValidationError("value", "rating must be between %d and %d", model.MinRatingValue, model.MaxRatingValue)
	}
	return nil
}

// AverageAndCount returns the mean rating rounded to one decimal place and
// the number of ratings. An empty sequence yields (0, 0).
func AverageAndCount(ratings []model.Rating) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	return RoundOneDecimal(float64(sum) / float64(len(ratings))), len(ratings)
}

// RoundOneDecimal rounds half away from zero to one decimal place.
func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

// RatingForViewer returns the viewer's own rating value, or nil when the
// viewer is anonymous or has not rated.
func RatingForViewer(ratings []model.Rating, viewerID *int64) *int {
	if viewerID == nil {
		return nil
	}
	for _, r := range ratings {
		if r.UserID == *viewerID {
			v := r.Value
			return &v
		}
	}
	return nil
}
