package feed

import (
	"errors"
	"strings"

	"github.com/pettopia/pettopia-server/cmd/models"
)

// ErrNotAuthenticated is returned when an action needs a user and none is known.
var ErrNotAuthenticated = errors.New("not authenticated")

// IsLikedBy reports whether userID appears in the post's likes, in either
// stored shape.
func IsLikedBy(p models.Post, userID string) bool {
	if userID == "" {
		return false
	}
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// ToggleLike returns the post as it will look once userID's like or unlike
// goes through. The input is never modified. Like counts floor at zero.
func ToggleLike(p models.Post, userID string) (models.Post, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return p, ErrNotAuthenticated
	}

	next := p
	if IsLikedBy(p, userID) {
		next.LikeCount = max(0, p.LikeCount-1)
		likes := make([]models.Like, 0, len(p.Likes))
		for _, l := range p.Likes {
			if l.UserID != userID {
				likes = append(likes, l)
			}
		}
		next.Likes = likes
		return next, nil
	}

	next.LikeCount = max(0, p.LikeCount) + 1
	likes := make([]models.Like, len(p.Likes), len(p.Likes)+1)
	copy(likes, p.Likes)
	next.Likes = append(likes, models.PlainLike(userID))
	return next, nil
}
