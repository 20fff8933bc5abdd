package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"inkwell/internal/engagement"
	"inkwell/internal/model"
	"inkwell/internal/queue"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================
//
// memDB backs in-memory versions of every repository so the services can be
// exercised end to end without PostgreSQL. Each repository type is a thin
// view over the same maps, mirroring the cascades the SQL schema enforces.

type memDB struct {
	mu sync.Mutex

	users    map[int64]*model.User
	nextUser int64

	posts    map[int64]*model.Post
	nextPost int64

	ratings      map[int64][]model.Rating // post id -> ratings
	postLikes    map[int64][]int64        // post id -> user ids
	bookmarks    map[int64][]int64        // user id -> post ids, insertion order
	comments     map[int64]*model.Comment
	nextComment  int64
	commentLikes map[int64][]int64

	clock time.Time
}

func newMemDB() *memDB {
	return &memDB{
		users:        make(map[int64]*model.User),
		posts:        make(map[int64]*model.Post),
		ratings:      make(map[int64][]model.Rating),
		postLikes:    make(map[int64][]int64),
		bookmarks:    make(map[int64][]int64),
		comments:     make(map[int64]*model.Comment),
		commentLikes: make(map[int64][]int64),
		clock:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick advances the store clock so every write gets a distinct timestamp.
func (db *memDB) tick() time.Time {
	db.clock = db.clock.Add(time.Second)
	return db.clock
}

func (db *memDB) userRepo() *memUserRepo         { return &memUserRepo{db} }
func (db *memDB) postRepo() *memPostRepo         { return &memPostRepo{db} }
func (db *memDB) ratingRepo() *memRatingRepo     { return &memRatingRepo{db} }
func (db *memDB) bookmarkRepo() *memBookmarkRepo { return &memBookmarkRepo{db} }
func (db *memDB) commentRepo() *memCommentRepo   { return &memCommentRepo{db} }

// seedUser inserts a user directly and returns its id.
func (db *memDB) seedUser(username, role string) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextUser++
	now := db.tick()
	db.users[db.nextUser] = &model.User{
		ID:        db.nextUser,
		Username:  username,
		Email:     username + "@example.com",
		AvatarURL: model.DefaultAvatarURL,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return db.nextUser
}

// seedPost inserts a post with an explicit creation time.
func (db *memDB) seedPost(authorID int64, title string, tags []string, createdAt time.Time) int64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.nextPost++
	db.posts[db.nextPost] = &model.Post{
		ID:        db.nextPost,
		AuthorID:  authorID,
		Title:     title,
		Content:   "content of " + title,
		Tags:      tags,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	return db.nextPost
}

func removeID(ids []int64, id int64) ([]int64, bool) {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...), true
		}
	}
	return ids, false
}

func toggleID(ids []int64, id int64) ([]int64, bool) {
	if rest, removed := removeID(ids, id); removed {
		return rest, false
	}
	return append(ids, id), true
}

// =============================================================================
// USERS
// =============================================================================

type memUserRepo struct{ db *memDB }

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return model.ErrUsernameExists
		}
	}
	r.db.nextUser++
	user.ID = r.db.nextUser
	user.CreatedAt = r.db.tick()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.db.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Username == identifier || u.Email == identifier {
			out := *u
			return &out, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *memUserRepo) GetSummaries(ctx context.Context, ids []int64) (map[int64]model.UserSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateProfile(ctx context.Context, id int64, req model.UpdateProfileRequest) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		u.AvatarURL = *req.AvatarURL
	}
	if req.AvatarKey != nil {
		u.AvatarKey = req.AvatarKey
	}
	out := *u
	return &out, nil
}

func (r *memUserRepo) List(ctx context.Context, search string) ([]model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.User
	for _, u := range r.db.users {
		if search == "" || strings.Contains(u.Username, search) || strings.Contains(u.Email, search) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int64) ([]string, error) {
	r.db.mu.Lock()
	u, ok := r.db.users[id]
	if !ok {
		r.db.mu.Unlock()
		return nil, model.ErrUserNotFound
	}
	var keys []string
	var owned []int64
	for pid, p := range r.db.posts {
		if p.AuthorID == id {
			owned = append(owned, pid)
		}
	}
	if u.AvatarKey != nil {
		keys = append(keys, *u.AvatarKey)
	}
	r.db.mu.Unlock()

	posts := r.db.postRepo()
	for _, pid := range owned {
		key, err := posts.Delete(ctx, pid)
		if err != nil {
			return nil, err
		}
		if key != nil {
			keys = append(keys, *key)
		}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.users, id)
	delete(r.db.bookmarks, id)
	for pid, ratings := range r.db.ratings {
		kept := ratings[:0]
		for _, rt := range ratings {
			if rt.UserID != id {
				kept = append(kept, rt)
			}
		}
		r.db.ratings[pid] = kept
	}
	for pid, likes := range r.db.postLikes {
		r.db.postLikes[pid], _ = removeID(likes, id)
	}
	for cid, c := range r.db.comments {
		if c.AuthorID == id {
			delete(r.db.comments, cid)
			delete(r.db.commentLikes, cid)
		}
	}
	return keys, nil
}

// =============================================================================
// POSTS
// =============================================================================

type memPostRepo struct{ db *memDB }

func (r *memPostRepo) Create(ctx context.Context, post *model.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[post.AuthorID]; !ok {
		return model.ErrUserNotFound
	}
	r.db.nextPost++
	post.ID = r.db.nextPost
	post.CreatedAt = r.db.tick()
	post.UpdatedAt = post.CreatedAt
	stored := *post
	r.db.posts[post.ID] = &stored
	return nil
}

func (r *memPostRepo) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	out := *p
	return &out, nil
}

func (r *memPostRepo) matching(filter model.PostFilter) []model.Post {
	var out []model.Post
	for _, p := range r.db.posts {
		if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
			continue
		}
		if filter.Tag != "" && !containsTag(p.Tags, filter.Tag) {
			continue
		}
		if !engagement.MatchesSearch(*p, filter.Search) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (r *memPostRepo) List(ctx context.Context, filter model.PostFilter, limit, offset int) ([]model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := r.matching(filter)
	if limit <= 0 {
		return out, nil
	}
	if offset >= len(out) {
		return []model.Post{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (r *memPostRepo) Count(ctx context.Context, filter model.PostFilter) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.matching(filter)), nil
}

func (r *memPostRepo) ListByIDs(ctx context.Context, ids []int64) ([]model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.db.posts[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memPostRepo) ListSince(ctx context.Context, since time.Time) ([]model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Post
	for _, p := range r.matching(model.PostFilter{}) {
		if !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memPostRepo) ListRatedBy(ctx context.Context, userID int64) ([]model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Post
	for _, p := range r.matching(model.PostFilter{}) {
		for _, rt := range r.db.ratings[p.ID] {
			if rt.UserID == userID {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *memPostRepo) Related(ctx context.Context, postID int64, tags []string, limit int) ([]model.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Post
	for _, p := range r.db.posts {
		if p.ID == postID {
			continue
		}
		for _, t := range tags {
			if containsTag(p.Tags, t) {
				out = append(out, *p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPostRepo) Tags(ctx context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range r.db.posts {
		for _, t := range p.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *memPostRepo) Update(ctx context.Context, post *model.Post) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[post.ID]; !ok {
		return model.ErrPostNotFound
	}
	post.UpdatedAt = r.db.tick()
	stored := *post
	r.db.posts[post.ID] = &stored
	return nil
}

func (r *memPostRepo) Delete(ctx context.Context, id int64) (*string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.posts[id]
	if !ok {
		return nil, model.ErrPostNotFound
	}
	delete(r.db.posts, id)
	delete(r.db.ratings, id)
	delete(r.db.postLikes, id)
	for uid, ids := range r.db.bookmarks {
		r.db.bookmarks[uid], _ = removeID(ids, id)
	}
	for cid, c := range r.db.comments {
		if c.PostID == id {
			delete(r.db.comments, cid)
			delete(r.db.commentLikes, cid)
		}
	}
	return p.ImageKey, nil
}

func (r *memPostRepo) ToggleLike(ctx context.Context, postID, userID int64) (bool, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	likes, liked := toggleID(r.db.postLikes[postID], userID)
	r.db.postLikes[postID] = likes
	return liked, len(likes), nil
}

func (r *memPostRepo) LikesForPosts(ctx context.Context, postIDs []int64) (map[int64][]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64][]int64)
	for _, id := range postIDs {
		if likes := r.db.postLikes[id]; len(likes) > 0 {
			out[id] = append([]int64(nil), likes...)
		}
	}
	return out, nil
}

func (r *memPostRepo) CommentCounts(ctx context.Context, postIDs []int64) (map[int64]int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64]int)
	for _, c := range r.db.comments {
		out[c.PostID]++
	}
	return out, nil
}

func (r *memPostRepo) Exists(ctx context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.posts[id]
	return ok, nil
}

// =============================================================================
// RATINGS
// =============================================================================

type memRatingRepo struct{ db *memDB }

func (r *memRatingRepo) Upsert(ctx context.Context, postID, userID int64, value int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[postID]; !ok {
		return model.ErrPostNotFound
	}
	now := r.db.tick()
	ratings := r.db.ratings[postID]
	for i := range ratings {
		if ratings[i].UserID == userID {
			ratings[i].Value = value
			ratings[i].RatedAt = &now
			return nil
		}
	}
	r.db.ratings[postID] = append(ratings, model.Rating{PostID: postID, UserID: userID, Value: value, RatedAt: &now})
	return nil
}

func (r *memRatingRepo) ListForPost(ctx context.Context, postID int64) ([]model.Rating, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]model.Rating(nil), r.db.ratings[postID]...), nil
}

func (r *memRatingRepo) ListForPosts(ctx context.Context, postIDs []int64) (map[int64][]model.Rating, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64][]model.Rating)
	for _, id := range postIDs {
		if ratings := r.db.ratings[id]; len(ratings) > 0 {
			out[id] = append([]model.Rating(nil), ratings...)
		}
	}
	return out, nil
}

// =============================================================================
// BOOKMARKS
// =============================================================================

type memBookmarkRepo struct{ db *memDB }

func (r *memBookmarkRepo) Toggle(ctx context.Context, userID, postID int64) (bool, []int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[postID]; !ok {
		return false, nil, model.ErrPostNotFound
	}
	ids, bookmarked := toggleID(r.db.bookmarks[userID], postID)
	r.db.bookmarks[userID] = ids
	return bookmarked, append([]int64(nil), ids...), nil
}

func (r *memBookmarkRepo) ListPostIDs(ctx context.Context, userID int64) ([]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return append([]int64(nil), r.db.bookmarks[userID]...), nil
}

// =============================================================================
// COMMENTS
// =============================================================================

type memCommentRepo struct{ db *memDB }

func (r *memCommentRepo) Create(ctx context.Context, comment *model.Comment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.posts[comment.PostID]; !ok {
		return model.ErrPostNotFound
	}
	r.db.nextComment++
	comment.ID = r.db.nextComment
	comment.CreatedAt = r.db.tick()
	comment.UpdatedAt = comment.CreatedAt
	stored := *comment
	r.db.comments[comment.ID] = &stored
	return nil
}

func (r *memCommentRepo) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	out := *c
	return &out, nil
}

func (r *memCommentRepo) Update(ctx context.Context, id int64, text string) (*model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.comments[id]
	if !ok {
		return nil, model.ErrCommentNotFound
	}
	c.Text = text
	c.UpdatedAt = r.db.tick()
	out := *c
	return &out, nil
}

func (r *memCommentRepo) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.comments[id]; !ok {
		return model.ErrCommentNotFound
	}
	delete(r.db.comments, id)
	delete(r.db.commentLikes, id)
	return nil
}

func (r *memCommentRepo) ListByPost(ctx context.Context, postID int64) ([]model.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []model.Comment
	for _, c := range r.db.comments {
		if c.PostID != postID {
			continue
		}
		comment := *c
		if u, ok := r.db.users[c.AuthorID]; ok {
			summary := u.Summary()
			summary.Email = ""
			comment.Author = &summary
		}
		out = append(out, comment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memCommentRepo) ToggleLike(ctx context.Context, commentID, userID int64) (bool, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	likes, liked := toggleID(r.db.commentLikes[commentID], userID)
	r.db.commentLikes[commentID] = likes
	return liked, len(likes), nil
}

func (r *memCommentRepo) LikesForComments(ctx context.Context, commentIDs []int64) (map[int64][]int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make(map[int64][]int64)
	for _, id := range commentIDs {
		if likes := r.db.commentLikes[id]; len(likes) > 0 {
			out[id] = append([]int64(nil), likes...)
		}
	}
	return out, nil
}

// =============================================================================
// PUBLISHER
// =============================================================================

type mockPublisher struct {
	mu     sync.Mutex
	events []queue.MediaEvent
}

func (p *mockPublisher) Publish(ctx context.Context, stream string, event queue.MediaEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *mockPublisher) Events() []queue.MediaEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.MediaEvent(nil), p.events...)
}
