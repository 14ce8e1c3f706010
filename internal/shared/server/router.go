package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/analyses"
	googleauth "healthspectrum-backend/internal/auth"
	"healthspectrum-backend/internal/documents"
	"healthspectrum-backend/internal/patients"
	"healthspectrum-backend/internal/shared/config"
	"healthspectrum-backend/internal/shared/metrics"
	"healthspectrum-backend/internal/shared/server/middleware"
	"healthspectrum-backend/internal/shared/server/respond"
	"healthspectrum-backend/internal/shares"
	"healthspectrum-backend/internal/users"
)

// RouterDeps carries the handlers the router wires up. Nil handlers
// are skipped, which keeps partial wiring possible in tests.
type RouterDeps struct {
	Config           config.Config
	UsersHandler     *users.Handler
	GoogleAuth       *googleauth.GoogleService
	DocumentsHandler *documents.Handler
	AnalysesHandler  *analyses.Handler
	SharesHandler    *shares.Handler
	PatientsHandler  *patients.Handler
}

// NewRouter constructs the Gin engine with middleware and routes
// registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateLimitGroup,
			Rules: map[string]middleware.RateLimitRule{
				"POLLING": {Rate: 5, Burst: 20},
				"UPLOAD":  {Rate: 1, Burst: 5},
			},
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})

	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}
	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.AnalysesHandler != nil {
		deps.AnalysesHandler.RegisterRoutes(api)
	}
	if deps.SharesHandler != nil {
		deps.SharesHandler.RegisterRoutes(api)
	}
	if deps.PatientsHandler != nil {
		deps.PatientsHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "route not found")
	})

	return r
}

// rateLimitGroup buckets the chatty endpoints: status polling and
// uploads get their own budgets, everything else is unlimited.
func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case strings.HasSuffix(path, "/status"):
		return "POLLING"
	case strings.HasSuffix(path, "/documents/upload"):
		return "UPLOAD"
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
