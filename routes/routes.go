package routes

import (
	"net/http"
	"strings"

	"blogapi/controllers"
	"blogapi/handlers"
	"blogapi/middleware"
	"blogapi/models"
	"blogapi/services"
	"blogapi/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Controllers struct {
	Auth   *controllers.AuthController
	Posts  *controllers.PostController
	Upload *controllers.UploadController
	Feed   *handlers.WebSocketHandler
}

func SetupRoutes(r *gin.Engine, tokens *utils.TokenIssuer, uploadDir string, ctl Controllers) error {
	if err := models.RegisterValidators(); err != nil {
		return err
	}
	authRequired := middleware.AuthRequired(tokens)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", ctl.Auth.Register)
		auth.POST("/login", ctl.Auth.Login)
		auth.GET("/me", authRequired, ctl.Auth.Me)
	}

	r.POST("/upload", authRequired, ctl.Upload.UploadImage)
	r.Static(services.UploadURLPrefix, uploadDir)

	r.GET("/tags", ctl.Posts.GetLastTags)

	posts := r.Group("/posts")
	{
		posts.GET("", ctl.Posts.GetAll)
		posts.GET("/tags", ctl.Posts.GetLastTags)
		posts.GET("/:id", ctl.Posts.GetOne)
		posts.POST("", authRequired, ctl.Posts.Create)
		posts.PATCH("/:id", authRequired, ctl.Posts.Update)
		posts.DELETE("/:id", authRequired, ctl.Posts.Delete)
	}

	r.GET("/ws/posts", ctl.Feed.HandlePostFeed)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return nil
}

const colonPostPrefix = "/posts:"

// ColonPostPaths serves /posts:<id> the same as /posts/:<id>. Older clients
// glue the id to the collection path, which the router cannot match.
func ColonPostPaths(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, colonPostPrefix) {
			req = req.Clone(req.Context())
			req.URL.Path = "/posts/" + strings.TrimPrefix(req.URL.Path, "/posts")
			req.URL.RawPath = ""
		}
		next.ServeHTTP(w, req)
	})
}
