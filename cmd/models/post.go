package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const avatarSeedURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

type Author struct {
	ID          string  `json:"user_id"`
	DisplayName string  `json:"fullname"`
	AvatarURL   *string `json:"avatar"`
}

// Avatar returns the author's avatar, or a generated one seeded by the author id.
func (a Author) Avatar() string {
	if a.AvatarURL != nil && *a.AvatarURL != "" {
		return *a.AvatarURL
	}
	return avatarSeedURL + a.ID
}

type Post struct {
	ID           string    `json:"post_id"`
	Author       Author    `json:"author"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Tags         TagList   `json:"tags"`
	Images       []string  `json:"images"`
	IsHidden     bool      `json:"isHidden"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	ViewCount    int       `json:"viewCount"`
	ReportCount  int       `json:"reportCount"`
	Likes        []Like    `json:"likes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Comment struct {
	ID        string    `json:"comment_id"`
	PostID    string    `json:"post_id,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Author    *Author   `json:"author,omitempty"`
}

// AuthorAvatar falls back to a generated avatar, seeded with "user" when the
// comment carries no author.
func (c Comment) AuthorAvatar() string {
	if c.Author == nil {
		return avatarSeedURL + "user"
	}
	return c.Author.Avatar()
}

type PostDetail struct {
	Post
	Comments []Comment `json:"comments"`
}

// TagList decodes the upstream tag field. Elements are strings, some of which
// may themselves hold a JSON-encoded array; literal nested arrays are
// flattened here, string-encoded ones are left for feed.NormalizeTags.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	out := make(TagList, 0, len(raw))
	for _, elem := range raw {
		elem = bytes.TrimSpace(elem)
		if bytes.Equal(elem, []byte("null")) {
			continue
		}
		if len(elem) > 0 && elem[0] == '[' {
			var nested TagList
			if err := nested.UnmarshalJSON(elem); err != nil {
				return err
			}
			out = append(out, nested...)
			continue
		}
		var s string
		if err := json.Unmarshal(elem, &s); err != nil {
			// numbers and booleans are kept by their literal text
			s = string(elem)
		}
		out = append(out, s)
	}
	*t = out
	return nil
}

// Like is one entry of a post's likes: either a bare user id or a record
// carrying user_id. Anything that is not a string is kept verbatim so a
// filtered slice re-encodes in the same shape.
type Like struct {
	UserID string
	raw    json.RawMessage
}

// PlainLike returns a like stored as a bare user id.
func PlainLike(userID string) Like {
	return Like{UserID: userID}
}

// IsRecord reports whether the like was received as something other than a
// plain string.
func (l Like) IsRecord() bool {
	return len(l.raw) > 0
}

func (l *Like) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("like: %w", err)
		}
		l.UserID = id
		l.raw = nil
		return nil
	}

	l.UserID = ""
	l.raw = append(json.RawMessage(nil), data...)
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(data, &rec); err != nil {
		// numbers, booleans and nulls carry no user
		return nil
	}
	for _, key := range []string{"user_id", "userId"} {
		if v, ok := rec[key]; ok {
			if l.UserID = likeUserID(v); l.UserID != "" {
				break
			}
		}
	}
	return nil
}

// likeUserID reads a user id given as a string or a number.
func likeUserID(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (l Like) MarshalJSON() ([]byte, error) {
	if l.IsRecord() {
		return l.raw, nil
	}
	return json.Marshal(l.UserID)
}
