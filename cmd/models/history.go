package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostSnapshot is the part of a post kept in a user's history, so the
// history page renders without calling the community API.
type PostSnapshot struct {
	PostID     string         `gorm:"column:post_id;size:64;not null;index" json:"post_id"`
	Title      string         `gorm:"column:title;size:255" json:"title"`
	AuthorName string         `gorm:"column:author_name;size:255" json:"author_name"`
	AvatarURL  string         `gorm:"column:avatar_url;size:500" json:"avatar_url"`
	Tags       pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	LikeCount  int            `gorm:"column:like_count" json:"like_count"`
	ViewCount  int            `gorm:"column:view_count" json:"view_count"`
}

type FavoritePost struct {
	gorm.Model
	UserID string `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	PostSnapshot
	FavoritedAt time.Time `gorm:"column:favorited_at" json:"favorited_at"`
}

type ViewedPost struct {
	gorm.Model
	UserID string `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	PostSnapshot
	ViewedAt time.Time `gorm:"column:viewed_at;index" json:"viewed_at"`
}

// SnapshotOf copies the history-relevant fields of a post.
func SnapshotOf(p Post) PostSnapshot {
	return PostSnapshot{
		PostID:     p.ID,
		Title:      p.Title,
		AuthorName: p.Author.DisplayName,
		AvatarURL:  p.Author.Avatar(),
		Tags:       pq.StringArray(append([]string(nil), p.Tags...)),
		LikeCount:  p.LikeCount,
		ViewCount:  p.ViewCount,
	}
}
