package api

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/gin-gonic/gin"
)

const userKey = "user"

// requireSecret resolves the "secret" query parameter to a user and stores
// it in the gin context.
func (s *Server) requireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.users.Authenticate(c.Request.Context(), c.Query("secret"))
		if err != nil {
			s.fail(c, err)
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(userKey).(*models.User)
}

// requestLogger logs the route template rather than the raw URL: query
// strings and some paths carry the user secret.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"route", route,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.logger.Error(c.Request.Context(), "panic recovered", "route", c.FullPath(), "panic", rec)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	})
}
