package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"healthspectrum-backend/internal/shared/server/middleware"
	"healthspectrum-backend/internal/shared/server/respond"
)

// maxRequestSize bounds the whole multipart request body.
const maxRequestSize = MaxUploadFiles*MaxUploadSize + (1 << 20)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/upload", h.upload)
	rg.GET("/documents/history", h.history)
	rg.GET("/documents/:id/status", h.status)
	rg.POST("/documents/:id/cancel", h.cancel)
	rg.POST("/documents/:id/retry", h.retry)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestSize)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		// Single-file clients use the "file" field.
		headers = form.File["file"]
	}
	if len(headers) == 0 {
		respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "at least one file is required")
		return
	}

	patientID := strings.TrimSpace(c.PostForm("patientId"))

	files := make([]UploadFile, 0, len(headers))
	closers := make([]interface{ Close() error }, 0, len(headers))
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "unable to read "+fh.Filename)
			return
		}
		closers = append(closers, f)
		files = append(files, UploadFile{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Reader:   f,
		})
	}

	docs, err := h.Svc.Upload(c.Request.Context(), userID, patientID, files)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to upload documents")
		}
		return
	}

	respond.JSON(c, http.StatusCreated, gin.H{
		"success":   true,
		"documents": docs,
	})
}

func (h *Handler) status(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	doc, err := h.Svc.Status(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to fetch document status")
		}
		return
	}

	payload := gin.H{
		"success":         true,
		"status":          doc.Status,
		"stageETASeconds": doc.StageETASeconds,
	}
	if doc.Error != "" {
		payload["error"] = doc.Error
	}
	respond.OK(c, payload)
}

func (h *Handler) history(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	filter := HistoryFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Status: Status(strings.TrimSpace(c.Query("status"))),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 10),
	}
	if raw := c.Query("from"); raw != "" {
		ts, err := parseDate(raw, false)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid from date")
			return
		}
		filter.From = &ts
	}
	if raw := c.Query("to"); raw != "" {
		ts, err := parseDate(raw, true)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, "invalid to date")
			return
		}
		filter.To = &ts
	}

	docs, pagination, err := h.Svc.History(c.Request.Context(), userID, filter)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, respond.CodeValidation, err.Error())
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to list documents")
		}
		return
	}

	respond.OK(c, gin.H{
		"success":    true,
		"documents":  docs,
		"pagination": pagination,
	})
}

func (h *Handler) cancel(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Cancel(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to cancel processing")
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "Processing cancelled",
	})
}

func (h *Handler) retry(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	if err := h.Svc.Retry(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "document not found")
		case errors.Is(err, ErrConflict):
			respond.Error(c, http.StatusConflict, respond.CodeConflict, "only failed documents can be retried")
		default:
			respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "failed to retry processing")
		}
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"message": "Document processing restarted",
	})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// parseDate accepts RFC3339 timestamps or bare dates. Bare "to" dates
// extend to the end of the day so ranges are inclusive.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Nanosecond)
	}
	return ts.UTC(), nil
}
