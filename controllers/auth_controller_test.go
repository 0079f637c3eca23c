package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"blogapi/middleware"
	"blogapi/models"
	"blogapi/repository"
	"blogapi/services"
	"blogapi/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthAPI(t *testing.T) *postAPI {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	ac := NewAuthController(services.NewUserService(store.Users(), tokens))

	r := gin.New()
	r.POST("/auth/register", ac.Register)
	r.POST("/auth/login", ac.Login)
	r.GET("/auth/me", middleware.AuthRequired(tokens), ac.Me)
	return &postAPI{router: r}
}

func TestAuth_RegisterLoginMe(t *testing.T) {
	api := newAuthAPI(t)

	w := api.do(t, http.MethodPost, "/auth/register", gin.H{
		"email": "Bob@Example.com", "password": "hunter22", "fullName": "Bob Builder",
	}, false)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var registered models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "bob@example.com", registered.User.Email)
	assert.NotContains(t, w.Body.String(), "hunter22")

	w = api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "bob@example.com", "password": "hunter22"}, false)
	require.Equal(t, http.StatusOK, w.Code)
	var loggedIn models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))

	api.token = loggedIn.Token
	w = api.do(t, http.MethodGet, "/auth/me", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, registered.User.ID, me.ID)
	assert.Equal(t, "Bob Builder", me.FullName)
}

func TestAuth_Register_Rejected(t *testing.T) {
	api := newAuthAPI(t)
	body := gin.H{"email": "bob@example.com", "password": "hunter22", "fullName": "Bob Builder"}

	w := api.do(t, http.MethodPost, "/auth/register", body, false)
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/auth/register", body, false)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(t, http.MethodPost, "/auth/register", gin.H{"email": "nope", "password": "123", "fullName": "B"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_Login_Rejected(t *testing.T) {
	api := newAuthAPI(t)
	api.do(t, http.MethodPost, "/auth/register", gin.H{
		"email": "bob@example.com", "password": "hunter22", "fullName": "Bob Builder",
	}, false)

	w := api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "bob@example.com", "password": "wrong-pass"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "nobody@example.com", "password": "hunter22"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodPost, "/auth/login", gin.H{"email": "bob@example.com"}, false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth_Me_UserGone(t *testing.T) {
	api := newAuthAPI(t)
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	token, err := tokens.Generate(models.NewID())
	require.NoError(t, err)
	api.token = token

	w := api.do(t, http.MethodGet, "/auth/me", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	api.token = ""
	w = api.do(t, http.MethodGet, "/auth/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

}
