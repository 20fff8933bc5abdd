package model

// BookmarkResult is returned by a bookmark toggle. Bookmarks holds the full
// set in stored (insertion) order.
type BookmarkResult struct {
	IsBookmarked bool    `json:"is_bookmarked"`
	Bookmarks    []int64 `json:"bookmarks"`
}
