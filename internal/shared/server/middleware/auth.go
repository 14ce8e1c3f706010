package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/shared/auth"
	"healthspectrum-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"
)

// AuthCookieName is the http-only cookie carrying the session JWT.
const AuthCookieName = "authToken"

// Paths that never require a credential.
var publicPathPrefixes = []string{
	"/api/v1/health",
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/google/",
	"/api/v1/shared/",
	"/metrics",
}

// Auth validates the session JWT from the auth cookie (or a bearer header)
// and stores the caller identity in context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		for _, prefix := range publicPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		token := tokenFromRequest(c)
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, respond.CodeAuth, "No authentication token provided")
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, respond.CodeAuth, "Invalid or expired token")
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.Name != "" {
			c.Set(userNameKey, claims.Name)
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(AuthCookieName); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}
	return ""
}

// SetAuthCookie writes the session cookie the way the UI expects it:
// http-only, SameSite strict, secure outside dev.
func SetAuthCookie(c *gin.Context, token string, secure bool, maxAgeSeconds int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AuthCookieName, token, maxAgeSeconds, "/", "", secure, true)
}

// ClearAuthCookie removes the session cookie.
func ClearAuthCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", secure, true)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}
