package domain

import (
	"fmt"
	"time"
)

const (
	// Upload limits enforced client-side before any network call.
	MaxMediaFileSize = 10 * 1024 * 1024
	MaxMediaPerPost  = 10
)

// AllowedMediaExtensions lists lower-case file extensions accepted for upload.
var AllowedMediaExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

type Media struct {
	ID               int64     `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	MimeType         string    `json:"mime_type"`
	FileSize         int64     `json:"file_size"`
	URL              string    `json:"url,omitempty"`
	PostID           int64     `json:"post_id"`
	UploadedBy       int64     `json:"uploaded_by"`
	CreatedAt        time.Time `json:"created_at"`
}

func (m *Media) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("media: missing or invalid id")
	}
	return nil
}

// Upload is a file staged for a multipart media upload.
type Upload struct {
	Filename string
	MimeType string
	Data     []byte
}
