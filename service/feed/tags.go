package feed

import (
	"encoding/json"
	"strings"

	"github.com/pettopia/pettopia-server/cmd/models"
)

// NormalizeTags splices JSON-encoded sub-arrays into the tag sequence.
// If any encoded element fails to parse the input is returned unchanged.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !strings.HasPrefix(tag, "[") {
			out = append(out, tag)
			continue
		}
		var nested []string
		if err := json.Unmarshal([]byte(tag), &nested); err != nil {
			return tags
		}
		out = append(out, nested...)
	}
	return out
}

// NormalizePosts drops hidden posts and normalizes the tags of the rest.
// The input slice and its posts are left untouched.
func NormalizePosts(raw []models.Post) []models.Post {
	posts := make([]models.Post, 0, len(raw))
	for _, p := range raw {
		if p.IsHidden {
			continue
		}
		posts = append(posts, NormalizePost(p))
	}
	return posts
}

// NormalizePost returns p with normalized tags, hidden or not.
func NormalizePost(p models.Post) models.Post {
	p.Tags = models.TagList(NormalizeTags(p.Tags))
	return p
}

func lowerTags(tags []string) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = strings.ToLower(t)
	}
	return out
}
