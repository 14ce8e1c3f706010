package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/shared/auth"
	"healthspectrum-backend/internal/shared/server/middleware"
	"healthspectrum-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// SecureCookies should be true outside local development.
	SecureCookies bool
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, secureCookies bool) *Handler {
	return &Handler{Svc: svc, SecureCookies: secureCookies}
}

// RegisterRoutes attaches account routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/logout", h.logout)
	rg.GET("/auth/me", h.me)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body")
		return
	}

	user, err := h.Svc.Register(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailTaken):
			respond.Error(c, http.StatusConflict, respond.CodeConflict, "email already registered")
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to register")
		}
		return
	}

	if err := h.issueSession(c, user); err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to issue token")
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body")
		return
	}

	user, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			respond.Error(c, http.StatusUnauthorized, respond.CodeAuth, "invalid email or password")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to log in")
		}
		return
	}

	if err := h.issueSession(c, user); err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to issue token")
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) logout(c *gin.Context) {
	middleware.ClearAuthCookie(c, h.SecureCookies)
	respond.OK(c, gin.H{
		"success": true,
		"message": "Logged out",
	})
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	user, err := h.Svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			// OAuth identities may not be materialized yet; answer from
			// the verified token claims.
			respond.OK(c, gin.H{
				"success": true,
				"user": gin.H{
					"id":    userID,
					"email": middleware.UserEmailFromContext(c),
				},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch user")
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) issueSession(c *gin.Context, user User) error {
	token, err := auth.SignJWT(auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		return err
	}
	middleware.SetAuthCookie(c, token, h.SecureCookies, int(auth.TokenTTL.Seconds()))
	return nil
}
