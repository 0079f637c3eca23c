package middleware

import (
	"net/http"
	"strings"

	"blogapi/logger"
	"blogapi/utils"

	"github.com/gin-gonic/gin"
)

const UserIDKey = "user_id"

func AuthRequired(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context())

		// a bare token without the scheme is accepted too
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			log.Debug("no token provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No access"})
			return
		}

		userID, err := tokens.Validate(token)
		if err != nil {
			log.Info("token validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No access"})
			return
		}

		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log.With("user_id", userID)))
		c.Next()
	}
}

// UserID returns the id stored by AuthRequired.
func UserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
