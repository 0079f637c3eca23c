package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"blogapi/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUploadRouter(t *testing.T, maxBytes int64) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	uploads, err := services.NewUploadService(dir, maxBytes)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/upload", NewUploadController(uploads).UploadImage)
	return r, dir
}

func uploadRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	r, dir := newUploadRouter(t, 1<<20)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "image", "cat.png", png))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, services.UploadURLPrefix+"/"))
	assert.True(t, strings.HasSuffix(resp.URL, ".png"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.Base(resp.URL)))
	require.NoError(t, err)
	assert.Equal(t, png, stored)
}

func TestUploadImage_Rejected(t *testing.T) {
	r, _ := newUploadRouter(t, 128)

	tests := []struct {
		name        string
		req         *http.Request
		wantMessage string
	}{
		{name: "wrong field", req: uploadRequest(t, "file", "cat.png", []byte("x")), wantMessage: "No image provided"},
		{name: "not an image", req: uploadRequest(t, "image", "notes.png", []byte("plain text, not pixels")), wantMessage: "Only JPEG and PNG images are allowed"},
		{name: "too large", req: uploadRequest(t, "image", "big.png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 512)...)), wantMessage: "File too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"`+tt.wantMessage+`"}`, w.Body.String())
		})
	}
}
