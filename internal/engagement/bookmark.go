package engagement

import (
	"strings"

	"inkwell/internal/model"
)

// IDSet is a membership set of ids, built once per request and consulted per post.
type IDSet map[int64]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids []int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership. A nil set contains nothing.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// MostRecentFirst returns posts in reverse of their stored bookmark order.
// The reversal is positional, never a sort by timestamp.
func MostRecentFirst(posts []model.Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[len(posts)-1-i] = p
	}
	return out
}

// MatchesSearch reports whether term occurs case-insensitively in the post's
// title or content. An empty term matches everything.
func MatchesSearch(p model.Post, term string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle)
}

// FilterBySearch keeps posts matching term, preserving order.
func FilterBySearch(posts []model.Post, term string) []model.Post {
	term = strings.TrimSpace(term)
	if term == "" {
		return posts
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		if MatchesSearch(p, term) {
			out = append(out, p)
		}
	}
	return out
}
