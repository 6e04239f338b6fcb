// Package httputil maps gateway errors to the HTTP responses the PowerDNS API
// clients expect: a status code plus a `{"error": "..."}` JSON body.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/pdns-gateway/internal/errors"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
)

// Fixed caller-facing messages. Authorization failures return the same short
// message regardless of which grant was consulted, so responses never expose
// how an environment's policy is shaped.
const (
	MessageUnauthorized       = "Unauthorized"
	MessageZoneNotAllowed     = "Zone not allowed"
	MessageNotZoneAdmin       = "Not Zone admin"
	MessageRecordNotAllowed   = "Record not allowed"
	MessageSearchNotAllowed   = "Search not allowed"
	MessageResourceNotAllowed = "Resource not allowed"
	MessageMetricsNotAllowed  = "Metrics not allowed"
	MessageRRSetReadOnly      = "RRSET update not allowed with read only token"
	MessageUpstreamError      = "Error while connecting to PowerDNS backend"
	MessageUnhandledError     = "Unhandled error"
)

// ErrorResponse is the PowerDNS-style error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleErrorGin maps a gateway error to its status code and fixed message
// and writes the JSON response. The full error chain is logged; the caller
// only ever sees the fixed message.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, message := errorStatus(err)

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("message", message),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, ErrorResponse{Error: message})
}

// HandleBadRequestGin writes a 400 response for malformed JSON or parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// ErrorStatusCode returns the status code a given error maps to, without
// writing a response. The gateway uses this for audit records emitted on
// denied mutating requests.
func ErrorStatusCode(err error) int {
	statusCode, _ := errorStatus(err)
	return statusCode
}

func errorStatus(err error) (int, string) {
	var recordDenied *domain.RecordDeniedError

	switch {
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, MessageUnauthorized

	case apperrors.As(err, &recordDenied):
		return http.StatusForbidden, recordDenied.Error()

	case apperrors.Is(err, domain.ErrZoneNotAllowed):
		return http.StatusForbidden, MessageZoneNotAllowed

	case apperrors.Is(err, domain.ErrZoneAdminNotAllowed):
		return http.StatusForbidden, MessageNotZoneAdmin

	case apperrors.Is(err, domain.ErrRecordNotAllowed):
		return http.StatusForbidden, MessageRecordNotAllowed

	case apperrors.Is(err, domain.ErrSearchNotAllowed):
		return http.StatusForbidden, MessageSearchNotAllowed

	case apperrors.Is(err, domain.ErrMetricsNotAllowed):
		return http.StatusForbidden, MessageMetricsNotAllowed

	case apperrors.Is(err, domain.ErrRRSetReadOnly):
		return http.StatusForbidden, MessageRRSetReadOnly

	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, MessageResourceNotAllowed

	case apperrors.Is(err, apperrors.ErrUpstream):
		return http.StatusInternalServerError, MessageUpstreamError

	default:
		return http.StatusInternalServerError, MessageUnhandledError
	}
}
