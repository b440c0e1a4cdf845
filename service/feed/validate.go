package feed

import (
	"strings"
	"unicode/utf8"
)

const (
	TitleMinLen   = 10
	TitleMaxLen   = 200
	ContentMinLen = 20
	ContentMaxLen = 10000
)

// NewPostInput is what the create form submits before any upload happens.
type NewPostInput struct {
	Category string
	Title    string
	Content  string
}

// FieldErrors maps a form field name to the message shown under it.
type FieldErrors map[string]string

// ValidateNewPost checks the create form. An empty result means the input
// can be submitted.
func ValidateNewPost(in NewPostInput) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(in.Category) == "" {
		errs["category"] = "Vui lòng chọn một danh mục"
	} else if _, ok := CategoryByID(in.Category); !ok {
		errs["category"] = "Danh mục không hợp lệ"
	}

	title := strings.TrimSpace(in.Title)
	switch n := utf8.RuneCountInString(title); {
	case n == 0:
		errs["title"] = "Vui lòng nhập tiêu đề bài viết"
	case n < TitleMinLen:
		errs["title"] = "Tiêu đề phải có ít nhất 10 ký tự"
	case n > TitleMaxLen:
		errs["title"] = "Tiêu đề không được vượt quá 200 ký tự"
	}

	content := strings.TrimSpace(in.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		errs["content"] = "Vui lòng nhập nội dung bài viết"
	case n < ContentMinLen:
		errs["content"] = "Nội dung phải có ít nhất 20 ký tự"
	case n > ContentMaxLen:
		errs["content"] = "Nội dung không được vượt quá 10,000 ký tự"
	}

	return errs
}
