package apiimpl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadMediaMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/17/media", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		require.NoError(t, r.ParseMultipartForm(32<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "a.jpg", files[0].Filename)
		assert.Equal(t, "image/jpeg", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "b.png", files[1].Filename)

		writeJSON(t, w, map[string]any{
			"uploaded_media": []map[string]any{
				{"id": 1, "filename": "a.jpg", "mime_type": "image/jpeg", "post_id": 17},
				{"id": 2, "filename": "b.png", "mime_type": "image/png", "post_id": 17},
			},
			"upload_count": 2,
		})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	media, err := client.UploadMedia(context.Background(), testSession(), 17, []domain.Upload{
		{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte("jpeg-bytes")},
		{Filename: "b.png", MimeType: "image/png", Data: []byte("png-bytes")},
	})
	require.NoError(t, err)
	require.Len(t, media, 2)
	assert.Equal(t, int64(1), media[0].ID)
}

func TestUploadMediaRejectsEmptyAndOverLimit(t *testing.T) {
	client, _ := newClient(t, "http://127.0.0.1:0")

	_, err := client.UploadMedia(context.Background(), testSession(), 17, nil)
	assert.Error(t, err)

	tooMany := make([]domain.Upload, domain.MaxMediaPerPost+1)
	for i := range tooMany {
		tooMany[i] = domain.Upload{Filename: "x.jpg", MimeType: "image/jpeg"}
	}
	_, err = client.UploadMedia(context.Background(), testSession(), 17, tooMany)
	assert.Error(t, err)
}
