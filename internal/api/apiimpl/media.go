package apiimpl

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
)

func (a *ApiImpl) UploadMedia(ctx context.Context, s *domain.Session, postID int64, uploads []domain.Upload) ([]domain.Media, error) {
	if len(uploads) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "no files to upload")
	}
	if len(uploads) > domain.MaxMediaPerPost {
		return nil, errors.Wrap(errors.ErrInvalidInput,
			fmt.Sprintf("at most %d files per post", domain.MaxMediaPerPost))
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, u := range uploads {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename=%q`, u.Filename))
		header.Set("Content-Type", u.MimeType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, errors.Wrap(err, "build multipart body")
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, errors.Wrap(err, "write multipart part")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "finish multipart body")
	}

	var out struct {
		UploadedMedia []domain.Media `json:"uploaded_media"`
		UploadCount   int            `json:"upload_count"`
		Errors        []string       `json:"errors,omitempty"`
	}
	path := fmt.Sprintf("/posts/%d/media", postID)
	if err := a.do(ctx, s, http.MethodPost, path, nil, buf.Bytes(), writer.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	if len(out.Errors) > 0 {
		a.logger.Warn("Some files were rejected by the server", "post_id", postID, "errors", out.Errors)
	}
	for i := range out.UploadedMedia {
		if err := out.UploadedMedia[i].Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid media in upload response")
		}
	}
	return out.UploadedMedia, nil
}

func (a *ApiImpl) DeleteMedia(ctx context.Context, s *domain.Session, mediaID int64) error {
	return a.deleteJSON(ctx, s, fmt.Sprintf("/media/%d", mediaID))
}

func (a *ApiImpl) GetMediaURL(ctx context.Context, s *domain.Session, mediaID int64) (string, error) {
	var out struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
	}
	if err := a.getJSON(ctx, s, fmt.Sprintf("/media/%d/url", mediaID), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
