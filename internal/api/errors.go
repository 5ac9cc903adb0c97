package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/lpcrm/reminder-poster/internal/imagegen"
	"github.com/lpcrm/reminder-poster/internal/poster"
	"github.com/lpcrm/reminder-poster/internal/service"
	"github.com/lpcrm/reminder-poster/internal/session"
)

// classify maps a domain error to a status code and the notice shown to staff.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, "Session not found."
	case errors.Is(err, poster.ErrValidation):
		return http.StatusBadRequest, "Please fill all fields."
	case errors.Is(err, poster.ErrUnknownDay):
		return http.StatusBadRequest, "Unknown day."
	case errors.Is(err, poster.ErrInvalidTime):
		return http.StatusBadRequest, "Time must be HH:MM."
	case errors.Is(err, poster.ErrDayNotScheduled):
		return http.StatusBadRequest, "Select the day before setting its time."
	case errors.Is(err, poster.ErrInvalidValue):
		return http.StatusBadRequest, "Invalid value."
	case errors.Is(err, poster.ErrBusy):
		return http.StatusConflict, "Please wait for the current action to finish."
	case errors.Is(err, poster.ErrNoBackground):
		return http.StatusConflict, "Generate a background before downloading."
	case errors.Is(err, imagegen.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, "Image generation is not configured."
	case errors.Is(err, service.ErrGenerationFailed), errors.Is(err, service.ErrEmptyResult):
		return http.StatusBadGateway, "Failed to generate image."
	case errors.Is(err, service.ErrExportFailed):
		return http.StatusInternalServerError, "Failed to save poster. Please try again."
	case errors.Is(err, service.ErrPreviewFailed):
		return http.StatusInternalServerError, "Failed to render preview."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, notice := classify(err)
	log := h.logger.With("path", c.FullPath(), "session_id", c.GetString(sessionIDKey), "status", status, "error", err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed")
	} else {
		log.Debug("request rejected")
	}

	body := gin.H{"error": notice}
	var verr *poster.ValidationError
	if errors.As(err, &verr) {
		body["missing"] = verr.Missing
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a binding failure with the offending fields.
func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Debug("invalid request body", "path", c.FullPath(), "error", err)
	body := gin.H{"error": "Invalid request."}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve))
		for _, fe := range ve {
			fields[fe.Field()] = fe.Tag()
		}
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
