package patients

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

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

// RegisterRoutes attaches patient routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/patient/me", h.get)
	rg.PUT("/patient/me", h.update)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	patient, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to get patient profile")
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"patient": patient,
	})
}

func (h *Handler) update(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var profile Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid request body")
		return
	}

	patient, err := h.Svc.Update(c.Request.Context(), userID, profile)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to update patient profile")
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "Patient profile updated successfully",
		"patient": patient,
	})
}
