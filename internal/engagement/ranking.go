package engagement

import (
	"sort"
	"time"

	"inkwell/internal/model"
)

// TrendingLess orders posts by (avgRating desc, ratingCount desc, createdAt desc).
// A higher average always wins regardless of volume; there is no shrinkage
// toward the global mean, so one 5-star rating outranks fifty 4.8s.
func TrendingLess(a, b model.Post) bool {
	if a.AvgRating != b.AvgRating {
		return a.AvgRating > b.AvgRating
	}
	if a.RatingCount != b.RatingCount {
		return a.RatingCount > b.RatingCount
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortTrending orders annotated posts in place by TrendingLess.
// AvgRating and RatingCount must already be populated.
func SortTrending(posts []model.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return TrendingLess(posts[i], posts[j])
	})
}

// Since returns the start of a trending window of days ending at now.
func Since(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// TopRatedBy extracts userID's own rating from each post, drops posts the
// user never rated, sorts by (userRating desc, ratedAt desc) and keeps the
// first limit. ratedAt falls back to the post's UpdatedAt when the rating has
// no timestamp of its own.
func TopRatedBy(posts []model.Post, userID int64, limit int) []model.RatedPost {
	rated := make([]model.RatedPost, 0, len(posts))
	for _, p := range posts {
		for _, r := range p.Ratings {
			if r.UserID != userID {
				continue
			}
			ratedAt := p.UpdatedAt
			if r.RatedAt != nil && !r.RatedAt.IsZero() {
				ratedAt = *r.RatedAt
			}
			rated = append(rated, model.RatedPost{Post: p, UserRating: r.Value, RatedAt: ratedAt})
			break
		}
	}

	sort.SliceStable(rated, func(i, j int) bool {
		if rated[i].UserRating != rated[j].UserRating {
			return rated[i].UserRating > rated[j].UserRating
		}
		return rated[i].RatedAt.After(rated[j].RatedAt)
	})

	if limit > 0 && len(rated) > limit {
		rated = rated[:limit]
	}
	return rated
}
