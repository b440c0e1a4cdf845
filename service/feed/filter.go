package feed

import (
	"slices"
	"strings"

	"github.com/pettopia/pettopia-server/cmd/models"
)

// TabAll disables category filtering.
const TabAll = "all"

// FilterPosts keeps the visible posts tagged with tab whose title, content or
// author name contains query. Case is ignored throughout; a blank query does
// not filter.
func FilterPosts(posts []models.Post, tab, query string) []models.Post {
	tab = strings.ToLower(strings.TrimSpace(tab))
	q := strings.ToLower(strings.TrimSpace(query))

	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsHidden {
			continue
		}
		if tab != "" && tab != TabAll && !slices.Contains(lowerTags(NormalizeTags(p.Tags)), tab) {
			continue
		}
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchesQuery(p models.Post, q string) bool {
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Content), q) ||
		strings.Contains(strings.ToLower(p.Author.DisplayName), q)
}
