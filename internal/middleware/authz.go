package middleware

import (
	"log"
	"net/http"
	"strings"

	"todo-manager/backend/internal/models"
	"todo-manager/backend/internal/services"

	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// RequireSession resolves the caller from a Bearer token or, failing
// that, the session cookie. Requests without a valid session stop here
// with 401.
func RequireSession(provider services.SessionProvider, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" && cookieName != "" {
			if cookie, err := c.Cookie(cookieName); err == nil {
				token = cookie
			}
		}

		if token == "" {
			abortUnauthorized(c)
			return
		}

		session, err := provider.Authenticate(token)
		if err != nil {
			log.Printf("Session rejected for %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			abortUnauthorized(c)
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}

// CurrentSession returns the session attached by RequireSession, or nil.
func CurrentSession(c *gin.Context) *models.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := value.(*models.Session)
	return session
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "unauthorized",
		"message": services.MsgUnauthorized,
	})
}
