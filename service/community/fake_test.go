package community

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// fakeAPI is an in-memory community API. Likes and comments change its state
// the way the real service would.
type fakeAPI struct {
	mu sync.Mutex

	posts       map[string]models.Post
	comments    map[string][]models.Comment
	trending    []models.Post
	trendingErr error
	likeErr     error
	likeGate    chan struct{}

	allCalls    int
	detailCalls int
	likeCalls   int
	created     []NewPost
}

func newFakeAPI(posts ...models.Post) *fakeAPI {
	f := &fakeAPI{posts: map[string]models.Post{}, comments: map[string][]models.Comment{}}
	for _, p := range posts {
		f.posts[p.ID] = p
	}
	return f
}

func (f *fakeAPI) AllPosts(ctx context.Context, sess Session) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	out := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Post) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (f *fakeAPI) TrendingPosts(ctx context.Context, sess Session, limit int) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trending, f.trendingErr
}

func (f *fakeAPI) PostDetail(ctx context.Context, sess Session, id string) (*models.PostDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailCalls++
	p, ok := f.posts[id]
	if !ok {
		return nil, &APIError{Status: 404, Message: "Post not found"}
	}
	p.Likes = slices.Clone(p.Likes)
	return &models.PostDetail{Post: p, Comments: slices.Clone(f.comments[id])}, nil
}

func (f *fakeAPI) CreatePost(ctx context.Context, sess Session, in NewPost) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	return json.RawMessage(`{"post_id":"new-1"}`), nil
}

func (f *fakeAPI) LikePost(ctx context.Context, sess Session, id string) error {
	return f.setLike(sess.UserID, id, true)
}

func (f *fakeAPI) UnlikePost(ctx context.Context, sess Session, id string) error {
	return f.setLike(sess.UserID, id, false)
}

func (f *fakeAPI) setLike(userID, id string, like bool) error {
	f.mu.Lock()
	gate := f.likeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	if f.likeErr != nil {
		return f.likeErr
	}
	p := f.posts[id]
	if like {
		p.Likes = append(slices.Clone(p.Likes), models.PlainLike(userID))
		p.LikeCount++
	} else {
		p.Likes = slices.DeleteFunc(slices.Clone(p.Likes), func(l models.Like) bool { return l.UserID == userID })
		p.LikeCount = max(0, p.LikeCount-1)
	}
	f.posts[id] = p
	return nil
}

func (f *fakeAPI) CreateComment(ctx context.Context, sess Session, postID, userID, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := models.Comment{ID: "c-" + postID, PostID: postID, Content: content, CreatedAt: time.Now()}
	f.comments[postID] = append(f.comments[postID], c)
	p := f.posts[postID]
	p.CommentCount++
	f.posts[postID] = p
	return &c, nil
}

type publishedPost struct {
	post       models.Post
	optimistic bool
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedPost
}

func (r *recordingPublisher) PublishPost(p models.Post, optimistic bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedPost{p, optimistic})
}

func (r *recordingPublisher) snapshot() []publishedPost {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func (m *memCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type memHistory struct {
	mu        sync.Mutex
	favorites map[string][]models.FavoritePost
	viewed    map[string][]models.ViewedPost
}

func newMemHistory() *memHistory {
	return &memHistory{favorites: map[string][]models.FavoritePost{}, viewed: map[string][]models.ViewedPost{}}
}

func (m *memHistory) ToggleFavorite(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	favs := m.favorites[userID]
	if i := slices.IndexFunc(favs, func(f models.FavoritePost) bool { return f.PostID == snap.PostID }); i >= 0 {
		m.favorites[userID] = slices.Delete(favs, i, i+1)
		return false, nil
	}
	m.favorites[userID] = append([]models.FavoritePost{{UserID: userID, PostSnapshot: snap, FavoritedAt: at}}, favs...)
	return true, nil
}

func (m *memHistory) IsFavorite(ctx context.Context, userID, postID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.ContainsFunc(m.favorites[userID], func(f models.FavoritePost) bool { return f.PostID == postID }), nil
}

func (m *memHistory) RecordView(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	viewed := slices.DeleteFunc(m.viewed[userID], func(v models.ViewedPost) bool { return v.PostID == snap.PostID })
	m.viewed[userID] = append([]models.ViewedPost{{UserID: userID, PostSnapshot: snap, ViewedAt: at}}, viewed...)
	return nil
}

func (m *memHistory) Favorites(ctx context.Context, userID string) ([]models.FavoritePost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.favorites[userID]), nil
}

func (m *memHistory) RecentlyViewed(ctx context.Context, userID string) ([]models.ViewedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.viewed[userID]), nil
}

func testPost(id string, likes int, created time.Time, tags ...string) models.Post {
	return models.Post{
		ID:        id,
		Author:    models.Author{ID: "author-" + id, DisplayName: "Author " + id},
		Title:     "Post title " + id,
		Content:   "Some content for post " + id,
		Tags:      models.TagList(tags),
		LikeCount: likes,
		CreatedAt: created,
		UpdatedAt: created,
	}
}
