package feed

import (
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
)

const cardTitleLimit = 30

// PostCard is a post decorated with what a list row renders.
type PostCard struct {
	models.Post
	AuthorAvatar string `json:"author_avatar"`
	ShortTitle   string `json:"short_title"`
	Badge        string `json:"badge,omitempty"`
	CreatedLabel string `json:"created_label"`
	UpdatedAgo   string `json:"updated_ago"`
	LikeLabel    string `json:"like_label"`
	ViewLabel    string `json:"view_label"`
	Liked        bool   `json:"liked"`
}

// Card decorates p for userID as of now.
func Card(p models.Post, userID string, now time.Time) PostCard {
	return PostCard{
		Post:         p,
		AuthorAvatar: p.Author.Avatar(),
		ShortTitle:   TruncateTitle(p.Title, cardTitleLimit),
		Badge:        BadgeFor(p.Tags),
		CreatedLabel: FormatDate(p.CreatedAt),
		UpdatedAgo:   FormatTimeAgo(p.UpdatedAt, now),
		LikeLabel:    FormatCount(p.LikeCount),
		ViewLabel:    FormatCount(p.ViewCount),
		Liked:        IsLikedBy(p, userID),
	}
}

func Cards(posts []models.Post, userID string, now time.Time) []PostCard {
	cards := make([]PostCard, len(posts))
	for i, p := range posts {
		cards[i] = Card(p, userID, now)
	}
	return cards
}
