package handler

import (
	"errors"
	"net/http"

	"civicdesk/backend/internal/auth"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/views"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errBadRequest marks malformed bodies and query values.
var errBadRequest = errors.New("bad request")

// statusFor maps service errors to HTTP codes. Unknown errors are 500.
func statusFor(err error) int {
	var authErr *auth.AuthError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, complaint.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errBadRequest),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, complaint.ErrInvalidInput),
		errors.Is(err, views.ErrUnsupportedFilter):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, complaint.ErrInvalidTransition),
		errors.Is(err, complaint.ErrStatusConflict),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, complaint.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// fail aborts the request with {"error": ...}. Internal errors are logged and
// not echoed.
func (h *Handler) fail(c *gin.Context, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		h.Logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}
