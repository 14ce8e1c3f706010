package analyses

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

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/ocrText", h.ocrText)
	rg.GET("/documents/:id/analysis", h.analysis)
	rg.GET("/documents/:id/results", h.results)
}

func (h *Handler) ocrText(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	analysis, err := h.Svc.ForDocument(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "OCR text not available yet")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch OCR text")
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"ocrText": analysis.OCRText,
	})
}

func (h *Handler) analysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	analysis, err := h.Svc.ForDocument(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "Analysis not available yet")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch analysis")
		}
		return
	}

	respond.OK(c, gin.H{
		"success":  true,
		"analysis": analysis,
	})
}

func (h *Handler) results(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	analysis, doc, err := h.Svc.Results(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, respond.CodeConflict, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch analysis")
		}
		return
	}

	respond.OK(c, gin.H{
		"success":  true,
		"document": doc,
		"analysis": analysis,
	})
}
