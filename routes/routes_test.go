package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blogapi/controllers"
	"blogapi/handlers"
	"blogapi/models"
	"blogapi/repository"
	"blogapi/services"
	"blogapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	token   string
	post    *models.Post
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	uploads, err := services.NewUploadService(t.TempDir(), 1<<20)
	require.NoError(t, err)
	hub := services.NewHubService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(hub.Stop)

	author := &models.User{FullName: "Ann Author", Email: "ann@example.com"}
	require.NoError(t, store.Users().Create(context.Background(), author))
	token, err := tokens.Generate(author.ID)
	require.NoError(t, err)
	post, err := store.Posts().Create(context.Background(), models.PostFields{
		Title: "First post", Text: "Some body text", Tags: []string{"x"},
	}, author.ID)
	require.NoError(t, err)

	r := gin.New()
	require.NoError(t, SetupRoutes(r, tokens, uploads.Dir(), Controllers{
		Auth:   controllers.NewAuthController(services.NewUserService(store.Users(), tokens)),
		Posts:  controllers.NewPostController(store.Posts(), utils.NewPostIDResolver(true), hub),
		Upload: controllers.NewUploadController(uploads),
		Feed:   handlers.NewWebSocketHandler(hub, []string{"*"}),
	}))

	return &testServer{handler: ColonPostPaths(r), token: token, post: post}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func TestPostRoutes_PathShapes(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{
		"/posts/" + srv.post.ID,
		"/posts/:" + srv.post.ID,
		"/posts:" + srv.post.ID,
	} {
		w := srv.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)

		var got models.Post
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, srv.post.ID, got.ID, path)
	}
}

func TestPostRoutes_ColonPathMutations(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPatch, "/posts:"+srv.post.ID, gin.H{"title": "Edited", "text": "Edited text", "tags": "a,b"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodDelete, "/posts:"+srv.post.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"deletedId":"`+srv.post.ID+`"}`, w.Body.String())

	w = srv.do(t, http.MethodGet, "/posts:"+srv.post.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostRoutes_ColonPathWithoutID(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/posts:", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Post id is missing from the request"}`, w.Body.String())
}

func TestRoutes_StaticAndTags(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{"/tags", "/posts/tags"} {
		w = srv.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `["x"]`, w.Body.String(), path)
	}

	w = srv.do(t, http.MethodGet, "/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
