package models

import "strings"

// MimeClass buckets attachments by how the UI renders them.
type MimeClass string

const (
	MimeImage MimeClass = "image"
	MimeVideo MimeClass = "video"
	MimeAudio MimeClass = "audio"
	MimeFile  MimeClass = "file"
)

// Attachment is a file carried by a message or a post.
type Attachment struct {
	Path        string    `json:"path"`
	MimeClass   MimeClass `json:"mime_class"`
	DisplayName string    `json:"display_name"`
}

// spurious prefixes the backend is known to leak into stored paths
var strippedPrefixes = []string{
	"http://localhost:8000",
	"http://localhost",
	"/api/v1/",
	"api/v1/",
	"/api/",
	"api/",
}

// NormalizeAttachmentPath turns a raw stored path into a fetchable URL.
// It is idempotent: an already-normalized absolute URL passes through
// unchanged, and normalizing twice yields the same result.
func NormalizeAttachmentPath(raw string) string {
	p := strings.TrimSpace(raw)
	if p == "" {
		return ""
	}
	for _, prefix := range strippedPrefixes {
		p = strings.TrimPrefix(p, prefix)
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimLeft(p, "/")
}

// ClassifyMime maps a content type to its MimeClass bucket.
func ClassifyMime(contentType string) MimeClass {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MimeImage
	case strings.HasPrefix(contentType, "video/"):
		return MimeVideo
	case strings.HasPrefix(contentType, "audio/"):
		return MimeAudio
	default:
		return MimeFile
	}
}
