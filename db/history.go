package db

import (
	"context"
	"errors"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
	"gorm.io/gorm"
)

// MaxViewedPosts bounds the recently-viewed list kept per user.
const MaxViewedPosts = 50

type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// ToggleFavorite adds the post to the user's favorites, or removes it if it
// is already there. It reports whether the post is a favorite afterwards.
func (s *HistoryStore) ToggleFavorite(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) (bool, error) {
	favorited := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FavoritePost
		err := tx.Where("user_id = ? AND post_id = ?", userID, snap.PostID).First(&existing).Error
		switch {
		case err == nil:
			return tx.Unscoped().Delete(&existing).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			favorited = true
			return tx.Create(&models.FavoritePost{
				UserID:       userID,
				PostSnapshot: snap,
				FavoritedAt:  at,
			}).Error
		default:
			return err
		}
	})
	return favorited, err
}

func (s *HistoryStore) IsFavorite(ctx context.Context, userID, postID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FavoritePost{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	return count > 0, err
}

// RecordView moves the post to the top of the user's recently viewed list,
// refreshing its snapshot, and trims the list to MaxViewedPosts.
func (s *HistoryStore) RecordView(ctx context.Context, userID string, snap models.PostSnapshot, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ViewedPost
		err := tx.Where("user_id = ? AND post_id = ?", userID, snap.PostID).First(&existing).Error
		switch {
		case err == nil:
			existing.PostSnapshot = snap
			existing.ViewedAt = at
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.ViewedPost{UserID: userID, PostSnapshot: snap, ViewedAt: at}).Error; err != nil {
				return err
			}
		default:
			return err
		}

		var stale []uint
		if err := tx.Model(&models.ViewedPost{}).
			Where("user_id = ?", userID).
			Order("viewed_at DESC").
			Offset(MaxViewedPosts).
			Pluck("id", &stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Unscoped().Delete(&models.ViewedPost{}, stale).Error
	})
}

func (s *HistoryStore) Favorites(ctx context.Context, userID string) ([]models.FavoritePost, error) {
	var favorites []models.FavoritePost
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("favorited_at DESC").
		Find(&favorites).Error
	return favorites, err
}

func (s *HistoryStore) RecentlyViewed(ctx context.Context, userID string) ([]models.ViewedPost, error) {
	var viewed []models.ViewedPost
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Limit(MaxViewedPosts).
		Find(&viewed).Error
	return viewed, err
}
