package controllers

import (
	"errors"
	"net/http"

	"blogapi/logger"
	"blogapi/middleware"
	"blogapi/models"
	"blogapi/repository"
	"blogapi/utils"

	"github.com/gin-gonic/gin"
)

// EventPublisher receives post change events after the store accepted them.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

type PostController struct {
	posts    repository.PostRepository
	resolver *utils.PostIDResolver
	events   EventPublisher
}

func NewPostController(posts repository.PostRepository, resolver *utils.PostIDResolver, events EventPublisher) *PostController {
	return &PostController{
		posts:    posts,
		resolver: resolver,
		events:   events,
	}
}

// GetLastTags godoc
// @Summary  Tags of the most recent posts
// @Tags     posts
// @Produce  json
// @Success  200 {array} string
// @Failure  500 {object} models.ErrorResponse
// @Router   /posts/tags [get]
// @Router   /tags [get]
func (pc *PostController) GetLastTags(c *gin.Context) {
	tags, err := pc.posts.ListRecentTags(c.Request.Context(), repository.RecentTagsLimit)
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("list recent tags", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch tags"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

// GetAll godoc
// @Summary  List all posts
// @Tags     posts
// @Produce  json
// @Success  200 {array} models.Post
// @Failure  500 {object} models.ErrorResponse
// @Router   /posts [get]
func (pc *PostController) GetAll(c *gin.Context) {
	posts, err := pc.posts.ListAll(c.Request.Context())
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("list posts", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetOne godoc
// @Summary  Get a post and count the view
// @Tags     posts
// @Produce  json
// @Param    id  path  string  true  "Post id"
// @Success  200 {object} models.Post
// @Failure  400 {object} models.ErrorResponse
// @Failure  404 {object} models.ErrorResponse
// @Failure  500 {object} models.ErrorResponse
// @Router   /posts/{id} [get]
func (pc *PostController) GetOne(c *gin.Context) {
	key, ok := pc.resolveID(c)
	if !ok {
		return
	}
	log := logger.FromContext(c.Request.Context()).With("post_id", key.String())

	post, err := pc.posts.GetOneAndIncrementViews(c.Request.Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("post not found")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Post not found"})
		return
	}
	if err != nil {
		log.Error("get post", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, post)
}

// Create godoc
// @Summary   Create a post
// @Tags      posts
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     post  body  models.CreatePostRequest  true  "Post"
// @Success   200 {object} models.Post
// @Failure   400 {object} models.ErrorResponse
// @Failure   401 {object} models.ErrorResponse
// @Failure   500 {object} models.ErrorResponse
// @Router    /posts [post]
func (pc *PostController) Create(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "No access"})
		return
	}

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("invalid post payload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid post data", Error: err.Error()})
		return
	}

	post, err := pc.posts.Create(c.Request.Context(), req.Fields(), userID)
	if err != nil {
		log.Error("create post", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to create post"})
		return
	}

	pc.events.Publish(models.EventPostCreated, post)
	c.JSON(http.StatusOK, post)
}

// Update godoc
// @Summary   Replace a post's fields
// @Tags      posts
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     id    path  string                    true  "Post id"
// @Param     post  body  models.UpdatePostRequest  true  "Post"
// @Success   200 {object} models.UpdatePostResponse
// @Failure   400 {object} models.ErrorResponse
// @Failure   401 {object} models.ErrorResponse
// @Failure   404 {object} models.ErrorResponse
// @Failure   500 {object} models.ErrorResponse
// @Router    /posts/{id} [patch]
func (pc *PostController) Update(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "No access"})
		return
	}

	key, ok := pc.resolveID(c)
	if !ok {
		return
	}
	log := logger.FromContext(c.Request.Context()).With("post_id", key.String())

	var req models.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("invalid post payload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid post data", Error: err.Error()})
		return
	}

	res, err := pc.posts.Update(c.Request.Context(), key, req.Fields(), userID)
	if err != nil {
		log.Error("update post", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to update post"})
		return
	}
	// an unchanged existing post is reported like a missing one
	if res.Modified == 0 {
		log.Info("post not updated", "matched", res.Matched)
		c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Post not found or not updated"})
		return
	}

	pc.events.Publish(models.EventPostUpdated, gin.H{"id": key.String()})
	c.JSON(http.StatusOK, models.UpdatePostResponse{Success: true})
}

// Delete godoc
// @Summary   Delete a post
// @Tags      posts
// @Produce   json
// @Security  BearerAuth
// @Param     id  path  string  true  "Post id"
// @Success   200 {object} models.DeletePostResponse
// @Failure   400 {object} models.ErrorResponse
// @Failure   401 {object} models.ErrorResponse
// @Failure   404 {object} models.ErrorResponse
// @Failure   500 {object} models.ErrorResponse
// @Router    /posts/{id} [delete]
func (pc *PostController) Delete(c *gin.Context) {
	key, ok := pc.resolveID(c)
	if !ok {
		return
	}
	log := logger.FromContext(c.Request.Context()).With("post_id", key.String())

	deletedID, err := pc.posts.Delete(c.Request.Context(), key)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("post not found")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "Post not found"})
		return
	}
	if err != nil {
		log.Error("delete post", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to delete post"})
		return
	}

	pc.events.Publish(models.EventPostDeleted, gin.H{"id": deletedID})
	c.JSON(http.StatusOK, models.DeletePostResponse{Success: true, DeletedID: deletedID})
}

// resolveID writes the 400 response itself when the id is unusable.
func (pc *PostController) resolveID(c *gin.Context) (models.PostKey, bool) {
	raw := c.Param("id")
	key, err := pc.resolver.Resolve(raw)
	if err == nil {
		return key, true
	}

	logger.FromContext(c.Request.Context()).Info("rejected post id", "raw_id", raw, "error", err)
	if errors.Is(err, utils.ErrMissingIdentifier) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Post id is missing from the request"})
	} else {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid post id format", Error: err.Error()})
	}
	return models.PostKey{}, false
}
