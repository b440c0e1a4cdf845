package community

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/service/feed"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const allPostsKey = "community:posts:all"

// SnapshotCache keeps short-lived copies of upstream answers.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type FeedOptions struct {
	TrendingWindowDays int
	TrendingLimit      int
	PageSize           int
	CacheTTL           time.Duration
}

// Feed loads posts from the community API and derives the views the
// community pages render.
type Feed struct {
	api    API
	cache  SnapshotCache
	opts   FeedOptions
	logger *logrus.Logger
	now    func() time.Time
}

// NewFeed wires a feed. cache may be nil.
func NewFeed(api API, cache SnapshotCache, opts FeedOptions, logger *logrus.Logger) *Feed {
	if opts.PageSize < 1 {
		opts.PageSize = feed.DefaultPageSize
	}
	return &Feed{api: api, cache: cache, opts: opts, logger: logger, now: time.Now}
}

// FeedPage is everything the community list page shows.
type FeedPage struct {
	Tab         string                   `json:"tab"`
	Query       string                   `json:"query"`
	Posts       feed.Page[feed.PostCard] `json:"posts"`
	PageNumbers []int                    `json:"page_numbers"`
	Trending    []feed.PostCard          `json:"trending"`
	Categories  []feed.Category          `json:"categories"`
}

// Posts returns the normalized, visible posts.
func (f *Feed) Posts(ctx context.Context, sess Session) ([]models.Post, error) {
	if raw, ok := f.cachedPosts(ctx); ok {
		return feed.NormalizePosts(raw), nil
	}
	raw, err := f.api.AllPosts(ctx, sess)
	if err != nil {
		return nil, err
	}
	f.storePosts(ctx, raw)
	return feed.NormalizePosts(raw), nil
}

// Trending returns the ranked trending posts. Upstream failures yield an
// empty list.
func (f *Feed) Trending(ctx context.Context, sess Session) []models.Post {
	raw, err := f.api.TrendingPosts(ctx, sess, f.opts.TrendingLimit)
	if err != nil {
		f.logger.WithError(err).WithField("request_id", sess.RequestID).Warn("trending posts unavailable")
		return []models.Post{}
	}
	return feed.RankTrendingAt(feed.NormalizePosts(raw), f.now(), f.opts.TrendingWindowDays, f.opts.TrendingLimit)
}

// Page loads the feed and the trending list concurrently and applies the
// tab, query and page.
func (f *Feed) Page(ctx context.Context, sess Session, tab, query string, page int) (*FeedPage, error) {
	var posts, trending []models.Post

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = f.Posts(gctx, sess)
		return err
	})
	g.Go(func() error {
		trending = f.Trending(gctx, sess)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if tab == "" {
		tab = feed.TabAll
	}
	now := f.now()
	filtered := feed.FilterPosts(posts, tab, query)
	paged := feed.Paginate(feed.Cards(filtered, sess.UserID, now), page, f.opts.PageSize)

	return &FeedPage{
		Tab:         tab,
		Query:       query,
		Posts:       paged,
		PageNumbers: feed.PageNumbers(paged.Page, paged.PageCount),
		Trending:    feed.Cards(trending, sess.UserID, now),
		Categories:  feed.Categories,
	}, nil
}

// Invalidate drops the cached post list after a mutation.
func (f *Feed) Invalidate(ctx context.Context) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Delete(ctx, allPostsKey); err != nil {
		f.logger.WithError(err).Warn("feed cache invalidation failed")
	}
}

func (f *Feed) cachedPosts(ctx context.Context) ([]models.Post, bool) {
	if f.cache == nil {
		return nil, false
	}
	data, ok, err := f.cache.Get(ctx, allPostsKey)
	if err != nil {
		f.logger.WithError(err).Warn("feed cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var posts []models.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		f.logger.WithError(err).Warn("discarding unreadable feed snapshot")
		return nil, false
	}
	return posts, true
}

func (f *Feed) storePosts(ctx context.Context, posts []models.Post) {
	if f.cache == nil || f.opts.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return
	}
	if err := f.cache.Set(ctx, allPostsKey, data, f.opts.CacheTTL); err != nil {
		f.logger.WithError(err).Warn("feed cache write failed")
	}
}
