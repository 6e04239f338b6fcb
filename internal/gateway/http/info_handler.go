package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdns-gateway/internal/audit"
	apperrors "github.com/allisson/pdns-gateway/internal/errors"
	"github.com/allisson/pdns-gateway/internal/httputil"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
	policyUsecase "github.com/allisson/pdns-gateway/internal/policy/usecase"
	"github.com/allisson/pdns-gateway/internal/upstream"
)

const (
	auditReadDefaultLimit = 100
	auditReadMaxLimit     = 1000
)

// InfoHandler serves the gateway's own endpoints: the index page, the
// upstream health probe, grant introspection, and the audit read-back.
type InfoHandler struct {
	store          *policyUsecase.Store
	upstreamClient upstream.Client
	auditLogger    *audit.Logger
	logger         *slog.Logger
}

// NewInfoHandler creates an info handler with required dependencies.
func NewInfoHandler(
	store *policyUsecase.Store,
	upstreamClient upstream.Client,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) *InfoHandler {
	return &InfoHandler{
		store:          store,
		upstreamClient: upstreamClient,
		auditLogger:    auditLogger,
		logger:         logger,
	}
}

// Index serves the configurable landing page, 404 when disabled.
func (h *InfoHandler) Index(c *gin.Context) {
	doc := h.store.Document()
	if !doc.IndexEnabled {
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{Error: "Not Found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.IndexHTML))
}

// HealthPDNS probes upstream reachability with a server listing request and
// reports 200 or 503. The upstream body is never forwarded.
func (h *InfoHandler) HealthPDNS(c *gin.Context) {
	resp, err := h.upstreamClient.Do(c.Request.Context(), http.MethodGet, "/api/v1/servers", nil, nil)
	if err != nil || resp.StatusCode >= http.StatusInternalServerError {
		h.logger.Warn("upstream health probe failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Allowed returns the authenticated environment's zone grants.
func (h *InfoHandler) Allowed(c *gin.Context) {
	env, ok := GetEnvironment(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"environment":      env.Name,
		"global_read_only": env.GlobalReadOnly,
		"zones":            env.Zones,
	})
}

// ZoneAllowed reports whether the environment may read one zone and which
// grant governs it.
func (h *InfoHandler) ZoneAllowed(c *gin.Context) {
	env, ok := GetEnvironment(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, h.logger)
		return
	}

	zoneName := c.Query("zone")
	if zoneName == "" {
		httputil.HandleBadRequestGin(c, apperrors.New("zone query parameter is required"), h.logger)
		return
	}

	response := gin.H{
		"zone":    zoneName,
		"allowed": domain.ZoneReadAllowed(env, zoneName),
	}
	if zone, err := env.MatchZone(zoneName); err == nil {
		response["grant"] = zone
	}
	c.JSON(http.StatusOK, response)
}

// AuditLogs returns a bounded, filtered read-back of the audit file for
// environments with the audit grant.
func (h *InfoHandler) AuditLogs(c *gin.Context) {
	env, ok := GetEnvironment(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, h.logger)
		return
	}
	if !domain.AuditReadAllowed(env) {
		httputil.HandleErrorGin(c, domain.ErrResourceNotAllowed, h.logger)
		return
	}

	limit := auditReadDefaultLimit
	if rawLimit := c.Query("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed <= 0 {
			httputil.HandleBadRequestGin(c, apperrors.New("limit must be a positive integer"), h.logger)
			return
		}
		limit = min(parsed, auditReadMaxLimit)
	}

	statusCode := 0
	if rawStatus := c.Query("status_code"); rawStatus != "" {
		parsed, err := strconv.Atoi(rawStatus)
		if err != nil {
			httputil.HandleBadRequestGin(c, apperrors.New("status_code must be an integer"), h.logger)
			return
		}
		statusCode = parsed
	}

	entries, err := h.auditLogger.Read(audit.Filter{
		Environment: c.Query("environment"),
		Method:      c.Query("method"),
		StatusCode:  statusCode,
	}, limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
