package feed

import (
	"sort"
	"time"

	"github.com/pettopia/pettopia-server/cmd/models"
)

// RankTrending returns up to limit visible posts created within the last
// windowDays, most liked first.
func RankTrending(posts []models.Post, windowDays, limit int) []models.Post {
	return RankTrendingAt(posts, time.Now(), windowDays, limit)
}

// RankTrendingAt is RankTrending evaluated at now. Posts with equal like
// counts keep their input order.
func RankTrendingAt(posts []models.Post, now time.Time, windowDays, limit int) []models.Post {
	cutoff := now.AddDate(0, 0, -windowDays)

	ranked := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsHidden || p.CreatedAt.Before(cutoff) {
			continue
		}
		ranked = append(ranked, p)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].LikeCount > ranked[j].LikeCount
	})

	if limit < 0 {
		limit = 0
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
