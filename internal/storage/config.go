package storage

import (
	"mime"
	"path"
	"strings"
)

// Config holds cover upload limits
type Config struct {
	MaxBytes     int64
	AllowedTypes []string
}

// Allows reports whether contentType (parameters ignored) is in the allow list.
func (c Config) Allows(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range c.AllowedTypes {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ExtensionFor returns the file extension used for a content type, or "".
func ExtensionFor(contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	return extensions[strings.ToLower(mediaType)]
}

// ContentTypeFor determines the content type of a stored key from its extension.
func ContentTypeFor(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
