package feed

import (
	"fmt"
	"strings"
	"time"
)

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Badge string `json:"badge"`
}

// Categories lists the community tabs in display order.
var Categories = []Category{
	{ID: "thongbao", Name: "Thông báo", Badge: "thảo luận"},
	{ID: "gopy", Name: "Góp ý", Badge: "góp ý"},
	{ID: "tintuc", Name: "Tin tức", Badge: "tin tức"},
	{ID: "review", Name: "Review sản phẩm", Badge: "review"},
	{ID: "chiase", Name: "Chia sẻ kiến thức", Badge: "download"},
	{ID: "tuvan", Name: "Tư vấn", Badge: "tư vấn"},
}

func CategoryByID(id string) (Category, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// BadgeFor returns the badge label of a post's first tag, or "" when untagged.
func BadgeFor(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	tag := strings.ToLower(tags[0])
	if c, ok := CategoryByID(tag); ok {
		return c.Badge
	}
	return tag
}

// FormatTimeAgo renders t relative to now; after 30 days it shows the date.
func FormatTimeAgo(t, now time.Time) string {
	secs := int(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%d giây trước", max(0, secs))
	case secs < 3600:
		return fmt.Sprintf("%d phút trước", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%d giờ trước", secs/3600)
	case secs < 30*86400:
		return fmt.Sprintf("%d ngày trước", secs/86400)
	}
	return FormatDate(t)
}

// FormatDate renders t as dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatCount abbreviates counts from 1000 up, e.g. 1.2K.
func FormatCount(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%d", n)
}

// TruncateTitle cuts title to limit runes, appending "..." when it does.
func TruncateTitle(title string, limit int) string {
	r := []rune(title)
	if len(r) <= limit {
		return title
	}
	return string(r[:limit]) + "..."
}
