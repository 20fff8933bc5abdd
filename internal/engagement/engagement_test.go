package engagement

import (
	"errors"
	"testing"
	"time"

	"inkwell/internal/model"
)

func ratings(values ...int) []model.Rating {
	out := make([]model.Rating, len(values))
	for i, v := range values {
		out[i] = model.Rating{UserID: int64(i + 1), Value: v}
	}
	return out
}

// =============================================================================
// RATING AGGREGATION
// =============================================================================

func TestAverageAndCount(t *testing.T) {
	tests := []struct {
		name      string
		ratings   []model.Rating
		wantAvg   float64
		wantCount int
	}{
		{"empty", nil, 0, 0},
		{"single", ratings(5), 5, 1},
		{"exact mean", ratings(4, 2), 3, 2},
		{"rounds down", ratings(5, 4, 4), 4.3, 3},
		{"rounds up", ratings(5, 5, 4), 4.7, 3},
		{"hundredths carry", ratings(4, 5, 5, 5, 4, 4, 4, 4), 4.4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := AverageAndCount(tt.ratings)
			if avg != tt.wantAvg {
				t.Errorf("avg = %v, want %v", avg, tt.wantAvg)
			}
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestValidateRating(t *testing.T) {
	for _, v := range []int{1, 3, 5} {
		if err := ValidateRating(v); err != nil {
			t.Errorf("ValidateRating(%d) = %v, want nil", v, err)
		}
	}
	for _, v := range []int{-1, 0, 6, 10} {
		err := ValidateRating(v)
		if !errors.Is(err, model.ErrValidation) {
			t.Errorf("ValidateRating(%d) = %v, want validation error", v, err)
		}
	}
}

func TestRatingForViewer(t *testing.T) {
	rs := []model.Rating{{UserID: 7, Value: 3}, {UserID: 9, Value: 5}}

	if got := RatingForViewer(rs, nil); got != nil {
		t.Errorf("anonymous viewer rating = %v, want nil", *got)
	}

	stranger := int64(42)
	if got := RatingForViewer(rs, &stranger); got != nil {
		t.Errorf("non-rating viewer = %v, want nil", *got)
	}

	rater := int64(9)
	got := RatingForViewer(rs, &rater)
	if got == nil || *got != 5 {
		t.Errorf("rater rating = %v, want 5", got)
	}
}

// =============================================================================
// BOOKMARKS
// =============================================================================

func TestMostRecentFirst_IsPositionalReversal(t *testing.T) {
	// Stored order: 3 was bookmarked first, then 1, then 2. Timestamps are
	// deliberately unrelated to bookmark order.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := []model.Post{
		{ID: 3, CreatedAt: base.Add(3 * time.Hour)},
		{ID: 1, CreatedAt: base.Add(1 * time.Hour)},
		{ID: 2, CreatedAt: base.Add(2 * time.Hour)},
	}

	got := MostRecentFirst(stored)

	want := []int64{2, 1, 3}
	for i, p := range got {
		if p.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if stored[0].ID != 3 {
		t.Error("input slice must not be modified")
	}
}

func TestFilterBySearch(t *testing.T) {
	posts := []model.Post{
		{ID: 1, Title: "Go Concurrency", Content: "channels everywhere"},
		{ID: 2, Title: "Cooking", Content: "A GOod recipe"},
		{ID: 3, Title: "Travel", Content: "mountains"},
	}

	got := FilterBySearch(posts, "go")
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("filtered = %v, want [1 2]", ids(got))
	}

	if all := FilterBySearch(posts, "  "); len(all) != 3 {
		t.Errorf("blank search returned %d posts, want 3", len(all))
	}
}

func TestIDSet(t *testing.T) {
	set := NewIDSet([]int64{4, 8})
	if !set.Has(4) || !set.Has(8) {
		t.Error("expected members 4 and 8")
	}
	if set.Has(5) {
		t.Error("5 should not be a member")
	}
	var empty IDSet
	if empty.Has(1) {
		t.Error("nil set should contain nothing")
	}
}

// =============================================================================
// TRENDING
// =============================================================================

func TestSortTrending_HigherAverageBeatsVolume(t *testing.T) {
	now := time.Now()
	a := model.Post{ID: 1, AvgRating: 5, RatingCount: 1, CreatedAt: now.Add(-48 * time.Hour)}
	b := model.Post{ID: 2, AvgRating: 4.8, RatingCount: 50, CreatedAt: now}
	posts := []model.Post{b, a}

	SortTrending(posts)

	if posts[0].ID != a.ID {
		t.Errorf("first = %d, want %d (higher average wins regardless of volume)", posts[0].ID, a.ID)
	}
}

func TestSortTrending_TieBreaks(t *testing.T) {
	now := time.Now()
	posts := []model.Post{
		{ID: 1, AvgRating: 4, RatingCount: 2, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: 2, AvgRating: 4, RatingCount: 5, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: 3, AvgRating: 4, RatingCount: 2, CreatedAt: now.Add(-1 * time.Hour)},
		{ID: 4, AvgRating: 0, RatingCount: 0, CreatedAt: now},
	}

	SortTrending(posts)

	want := []int64{2, 3, 1, 4}
	for i, p := range posts {
		if p.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(posts), want)
		}
	}
}

func TestSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	got := Since(now, 7)
	want := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Since = %v, want %v", got, want)
	}
}

// =============================================================================
// TOP RATED BY USER
// =============================================================================

func TestTopRatedBy(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time {
		ts := base.Add(time.Duration(h) * time.Hour)
		return &ts
	}
	const user = int64(10)

	posts := []model.Post{
		{ID: 1, UpdatedAt: base, Ratings: []model.Rating{{UserID: user, Value: 4, RatedAt: at(1)}}},
		{ID: 2, UpdatedAt: base, Ratings: []model.Rating{{UserID: 99, Value: 5}, {UserID: user, Value: 5, RatedAt: at(2)}}},
		{ID: 3, UpdatedAt: base, Ratings: []model.Rating{{UserID: 99, Value: 5}}}, // not rated by user
		{ID: 4, UpdatedAt: base.Add(10 * time.Hour), Ratings: []model.Rating{{UserID: user, Value: 4}}}, // falls back to UpdatedAt
		{ID: 5, UpdatedAt: base, Ratings: []model.Rating{{UserID: user, Value: 5, RatedAt: at(5)}}},
	}

	got := TopRatedBy(posts, user, 3)

	want := []int64{5, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, rp := range got {
		if rp.ID != want[i] {
			t.Fatalf("order = %v, want %v", ratedIDs(got), want)
		}
	}
	if got[0].UserRating != 5 {
		t.Errorf("user rating = %d, want the user's own value 5", got[0].UserRating)
	}
	if !got[2].RatedAt.Equal(posts[3].UpdatedAt) {
		t.Errorf("ratedAt = %v, want fallback to post UpdatedAt %v", got[2].RatedAt, posts[3].UpdatedAt)
	}
}

// =============================================================================
// TAGS & PAGINATION
// =============================================================================

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"Action", "Drama", " action ", "", "SCI-FI"})
	want := []string{"action", "drama", "sci-fi"}
	if len(got) != len(want) {
		t.Fatalf("tags = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tags = %v, want %v", got, want)
		}
	}
}

func TestPage(t *testing.T) {
	p := NewPage(3, 10)
	if p.Offset != 20 {
		t.Errorf("offset = %d, want 20", p.Offset)
	}
	if pages := p.Pages(25); pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}

	unbounded := NewPage(4, 0)
	if unbounded.Paginated() {
		t.Error("limit 0 should be unbounded")
	}
	if unbounded.Page != 1 || unbounded.Pages(25) != 1 {
		t.Errorf("unbounded page/pages = %d/%d, want 1/1", unbounded.Page, unbounded.Pages(25))
	}

	if NewPage(0, 5).Page != 1 {
		t.Error("page below 1 should clamp to 1")
	}
}

func ids(posts []model.Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func ratedIDs(posts []model.RatedPost) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
