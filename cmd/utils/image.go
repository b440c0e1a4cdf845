package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	MaxImageSize  = 10 << 20 // 10 MB
	MaxImageCount = 9
)

var validImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ValidateImage checks an uploaded image before it is forwarded upstream.
func ValidateImage(header *multipart.FileHeader) error {
	if header.Size > MaxImageSize {
		return fmt.Errorf("file size exceeds maximum limit of %d MB", MaxImageSize/(1<<20))
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := validImageTypes[ext]; !ok {
		return fmt.Errorf("invalid file type: %s", ext)
	}
	return nil
}

// ImageContentType maps a file name to its image MIME type.
func ImageContentType(filename string) string {
	if ct, ok := validImageTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
