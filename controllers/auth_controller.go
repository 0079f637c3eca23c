package controllers

import (
	"errors"
	"net/http"

	"blogapi/logger"
	"blogapi/middleware"
	"blogapi/models"
	"blogapi/repository"
	"blogapi/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	userService *services.UserService
}

func NewAuthController(userService *services.UserService) *AuthController {
	return &AuthController{userService: userService}
}

// Register godoc
// @Summary  Register a user
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    user  body  models.RegisterRequest  true  "User"
// @Success  201 {object} models.AuthResponse
// @Failure  400 {object} models.ErrorResponse
// @Failure  409 {object} models.ErrorResponse
// @Router   /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("invalid register payload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid registration data", Error: err.Error()})
		return
	}

	resp, err := ac.userService.Register(c.Request.Context(), &req)
	if errors.Is(err, services.ErrEmailTaken) {
		log.Info("email already registered")
		c.JSON(http.StatusConflict, models.ErrorResponse{Message: "User with this email already exists"})
		return
	}
	if err != nil {
		log.Error("register user", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to register"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    credentials  body  models.LoginRequest  true  "Credentials"
// @Success  200 {object} models.AuthResponse
// @Failure  400 {object} models.ErrorResponse
// @Failure  401 {object} models.ErrorResponse
// @Router   /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	log := logger.FromContext(c.Request.Context())

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Info("invalid login payload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid login data", Error: err.Error()})
		return
	}

	resp, err := ac.userService.Login(c.Request.Context(), &req)
	if errors.Is(err, services.ErrInvalidCredentials) {
		log.Info("login rejected")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "Invalid email or password"})
		return
	}
	if err != nil {
		log.Error("login", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to log in"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me godoc
// @Summary   Current user
// @Tags      auth
// @Produce   json
// @Security  BearerAuth
// @Success   200 {object} models.User
// @Failure   401 {object} models.ErrorResponse
// @Failure   404 {object} models.ErrorResponse
// @Router    /auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Message: "No access"})
		return
	}

	user, err := ac.userService.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.FromContext(c.Request.Context()).Info("token user no longer exists")
		c.JSON(http.StatusNotFound, models.ErrorResponse{Message: "User not found"})
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("get user", "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Message: "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}
