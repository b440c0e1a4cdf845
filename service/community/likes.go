package community

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/service/feed"
	"github.com/sirupsen/logrus"
)

// Publisher receives every state a post passes through, optimistic or
// confirmed by the server.
type Publisher interface {
	PublishPost(p models.Post, optimistic bool)
}

// LikeConfirmation is the outcome of the upstream like call. On failure Post
// holds the state re-fetched from the server, or the zero value if that
// fetch failed too.
type LikeConfirmation struct {
	Post models.Post
	Err  error
}

// Likes runs optimistic like toggles. Toggles on the same post run one
// after another; a second toggle waits for the first one's confirmation.
type Likes struct {
	api            API
	pub            Publisher
	onConfirmed    func(ctx context.Context)
	logger         *logrus.Logger
	confirmTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*postLock
}

// postLock is a one-slot semaphore so waiters can give up with their context.
type postLock struct {
	sem  chan struct{}
	refs int
}

// NewLikes wires the coordinator. pub and onConfirmed may be nil.
func NewLikes(api API, pub Publisher, onConfirmed func(ctx context.Context), logger *logrus.Logger) *Likes {
	return &Likes{
		api:            api,
		pub:            pub,
		onConfirmed:    onConfirmed,
		logger:         logger,
		confirmTimeout: 15 * time.Second,
		locks:          make(map[string]*postLock),
	}
}

// Toggle applies the like or unlike for sess.UserID to the current post and
// publishes the optimistic result before the upstream call starts. The
// channel yields exactly one confirmation. A failed call is never undone by
// hand: the post is re-fetched and that state is published instead.
func (l *Likes) Toggle(ctx context.Context, sess Session, postID string) (models.Post, <-chan LikeConfirmation, error) {
	if sess.UserID == "" {
		return models.Post{}, nil, feed.ErrNotAuthenticated
	}

	lock, err := l.acquire(ctx, postID)
	if err != nil {
		return models.Post{}, nil, err
	}
	release := func() { l.release(postID, lock) }

	detail, err := l.api.PostDetail(ctx, sess, postID)
	if err != nil {
		release()
		return models.Post{}, nil, fmt.Errorf("loading post %s: %w", postID, err)
	}
	current := feed.NormalizePost(detail.Post)
	next, err := feed.ToggleLike(current, sess.UserID)
	if err != nil {
		release()
		return models.Post{}, nil, err
	}
	wasLiked := feed.IsLikedBy(current, sess.UserID)
	l.publish(next, true)

	done := make(chan LikeConfirmation, 1)
	confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.confirmTimeout)
	go func() {
		defer cancel()
		defer release()
		done <- l.confirm(confirmCtx, sess, postID, next, wasLiked)
	}()
	return next, done, nil
}

func (l *Likes) confirm(ctx context.Context, sess Session, postID string, optimistic models.Post, wasLiked bool) LikeConfirmation {
	var err error
	if wasLiked {
		err = l.api.UnlikePost(ctx, sess, postID)
	} else {
		err = l.api.LikePost(ctx, sess, postID)
	}
	if err == nil {
		if l.onConfirmed != nil {
			l.onConfirmed(ctx)
		}
		return LikeConfirmation{Post: optimistic}
	}

	entry := l.logger.WithError(err).WithFields(logrus.Fields{"post_id": postID, "request_id": sess.RequestID})
	entry.Warn("like toggle rejected, resyncing post")

	detail, ferr := l.api.PostDetail(ctx, sess, postID)
	if ferr != nil {
		entry.WithField("resync_error", ferr.Error()).Error("could not resync post after failed like")
		return LikeConfirmation{Err: err}
	}
	authoritative := feed.NormalizePost(detail.Post)
	l.publish(authoritative, false)
	return LikeConfirmation{Post: authoritative, Err: err}
}

func (l *Likes) publish(p models.Post, optimistic bool) {
	if l.pub != nil {
		l.pub.PublishPost(p, optimistic)
	}
}

func (l *Likes) acquire(ctx context.Context, postID string) (*postLock, error) {
	l.mu.Lock()
	lock, ok := l.locks[postID]
	if !ok {
		lock = &postLock{sem: make(chan struct{}, 1)}
		l.locks[postID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.sem <- struct{}{}:
		return lock, nil
	case <-ctx.Done():
		l.drop(postID, lock)
		return nil, ctx.Err()
	}
}

func (l *Likes) release(postID string, lock *postLock) {
	<-lock.sem
	l.drop(postID, lock)
}

func (l *Likes) drop(postID string, lock *postLock) {
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, postID)
	}
	l.mu.Unlock()
}
