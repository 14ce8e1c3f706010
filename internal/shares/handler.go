package shares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/documents"
	"healthspectrum-backend/internal/shared/server/middleware"
	"healthspectrum-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches share routes to the router group. The
// /shared/:token resolver is public; the auth middleware skips it.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/share/:id", h.create)
	rg.GET("/shared/:token", h.resolve)
}

func (h *Handler) create(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	share, shareURL, err := h.Svc.CreateLink(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to create share link")
		}
		return
	}

	respond.OK(c, gin.H{
		"success":   true,
		"shareUrl":  shareURL,
		"expiresAt": share.ExpiresAt,
	})
}

func (h *Handler) resolve(c *gin.Context) {
	doc, analysis, err := h.Svc.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "share link not found")
		case errors.Is(err, ErrExpired):
			respond.Error(c, http.StatusGone, respond.CodeNotFound, "share link expired")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to resolve share link")
		}
		return
	}

	body := gin.H{
		"success":  true,
		"document": doc,
	}
	if analysis != nil {
		body["analysis"] = analysis
	}
	respond.OK(c, body)
}
