package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdns-gateway/internal/audit"
	apperrors "github.com/allisson/pdns-gateway/internal/errors"
	"github.com/allisson/pdns-gateway/internal/httputil"
	"github.com/allisson/pdns-gateway/internal/metrics"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
	"github.com/allisson/pdns-gateway/internal/upstream"
)

const jsonContentType = "application/json"

// ProxyHandler implements the authorizing proxy routes: every handler runs
// the decision functions for its route, forwards permitted requests upstream
// with the gateway's credential, classifies the reply, and audits mutations.
type ProxyHandler struct {
	upstreamClient upstream.Client
	auditLogger    *audit.Logger
	gatewayMetrics metrics.GatewayMetrics
	logger         *slog.Logger
}

// NewProxyHandler creates a proxy handler with required dependencies.
func NewProxyHandler(
	upstreamClient upstream.Client,
	auditLogger *audit.Logger,
	gatewayMetrics metrics.GatewayMetrics,
	logger *slog.Logger,
) *ProxyHandler {
	return &ProxyHandler{
		upstreamClient: upstreamClient,
		auditLogger:    auditLogger,
		gatewayMetrics: gatewayMetrics,
		logger:         logger,
	}
}

// environment returns the resolved environment or rejects the request. The
// authentication middleware always runs first on proxied routes, so a miss
// here is a routing bug, not a caller mistake.
func (h *ProxyHandler) environment(c *gin.Context) (*domain.Environment, bool) {
	env, ok := GetEnvironment(c.Request.Context())
	if !ok {
		h.logger.Error("no environment in context", slog.String("path", c.Request.URL.Path))
		httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, h.logger)
		c.Abort()
		return nil, false
	}
	return env, true
}

// readBody drains the request body for authorization checks and forwarding.
func (h *ProxyHandler) readBody(c *gin.Context) ([]byte, bool) {
	if c.Request.Body == nil {
		return nil, true
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		httputil.HandleBadRequestGin(c, apperrors.Wrap(err, "failed to read request body"), h.logger)
		return nil, false
	}
	return body, true
}

// deny responds with the error's fixed message, records the denial metric,
// and audits the denied request when it is a mutation.
func (h *ProxyHandler) deny(c *gin.Context, env *domain.Environment, err error, payload []byte) {
	httputil.HandleErrorGin(c, err, h.logger)
	h.gatewayMetrics.RecordDenial(c.Request.Context(), env.Name, denialReason(err))
	h.auditRequest(c, env, payload, httputil.ErrorStatusCode(err))
}

// forward sends the request upstream, classifies the reply, responds, and
// audits mutations with the final status code.
func (h *ProxyHandler) forward(c *gin.Context, env *domain.Environment, payload []byte) {
	outcome, err := h.call(c, payload)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		h.auditRequest(c, env, payload, c.Writer.Status())
		return
	}
	h.respondOutcome(c, outcome)
	h.auditRequest(c, env, payload, c.Writer.Status())
}

// call performs the upstream request and classifies the reply.
func (h *ProxyHandler) call(c *gin.Context, payload []byte) (upstream.Outcome, error) {
	start := time.Now()
	resp, err := h.upstreamClient.Do(
		c.Request.Context(),
		c.Request.Method,
		c.Request.URL.Path,
		c.Request.URL.Query(),
		payload,
	)
	if err != nil {
		return upstream.Outcome{}, err
	}
	h.gatewayMetrics.RecordUpstreamDuration(c.Request.Context(), c.Request.Method, resp.StatusCode, time.Since(start))
	return upstream.Classify(resp), nil
}

func (h *ProxyHandler) respondOutcome(c *gin.Context, outcome upstream.Outcome) {
	switch outcome.Kind {
	case upstream.OutcomeSuccess, upstream.OutcomeForwardedClientError:
		if len(outcome.Body) == 0 {
			c.Status(outcome.StatusCode)
			return
		}
		c.Data(outcome.StatusCode, jsonContentType, outcome.Body)
	case upstream.OutcomeUpstreamError:
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUpstream, "upstream returned an error shape"), h.logger)
	default:
		httputil.HandleErrorGin(c, apperrors.ErrUnhandled, h.logger)
	}
}

func (h *ProxyHandler) auditRequest(c *gin.Context, env *domain.Environment, payload []byte, statusCode int) {
	if !isMutating(c.Request.Method) || h.auditLogger == nil {
		return
	}
	if err := h.auditLogger.Log(env.Name, c.Request.Method, c.Request.URL.Path, payload, statusCode); err != nil {
		h.logger.Error("failed to write audit entry", slog.Any("error", err))
	}
}

func denialReason(err error) string {
	switch {
	case apperrors.Is(err, domain.ErrZoneAdminNotAllowed):
		return "zone_admin_not_allowed"
	case apperrors.Is(err, domain.ErrZoneNotAllowed):
		return "zone_not_allowed"
	case apperrors.Is(err, domain.ErrRRSetReadOnly):
		return "rrset_read_only"
	case apperrors.Is(err, domain.ErrRecordNotAllowed):
		return "record_not_allowed"
	case apperrors.Is(err, domain.ErrSearchNotAllowed):
		return "search_not_allowed"
	case apperrors.Is(err, domain.ErrMetricsNotAllowed):
		return "metrics_not_allowed"
	case apperrors.Is(err, domain.ErrResourceNotAllowed):
		return "resource_not_allowed"
	default:
		return "forbidden"
	}
}

// APIRoot proxies the API version/compatibility document.
func (h *ProxyHandler) APIRoot(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	h.forward(c, env, nil)
}

// Servers proxies the server listing and single-server document.
func (h *ProxyHandler) Servers(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	h.forward(c, env, nil)
}

// ResourceDenied refuses routes the gateway never exposes, such as server
// configuration and statistics.
func (h *ProxyHandler) ResourceDenied(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	h.deny(c, env, domain.ErrResourceNotAllowed, nil)
}

// zoneListing mirrors the upstream zone document fields the listing filter
// needs; unknown fields survive via the raw message.
type zoneListing struct {
	Name string `json:"name"`
}

// ListZones proxies the zone listing, filtered down to the zones the
// environment may read.
func (h *ProxyHandler) ListZones(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}

	outcome, err := h.call(c, nil)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if outcome.Kind != upstream.OutcomeSuccess {
		h.respondOutcome(c, outcome)
		return
	}

	filtered, err := filterZoneListing(env, outcome.Body)
	if err != nil {
		httputil.HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUpstream, "failed to parse upstream zone listing"), h.logger)
		return
	}
	c.Data(outcome.StatusCode, jsonContentType, filtered)
}

// filterZoneListing removes zones the environment may not read from an
// upstream listing, preserving each remaining document byte-for-byte.
func filterZoneListing(env *domain.Environment, body []byte) ([]byte, error) {
	var rawZones []json.RawMessage
	if err := json.Unmarshal(body, &rawZones); err != nil {
		return nil, err
	}

	allowed := make([]json.RawMessage, 0, len(rawZones))
	for _, raw := range rawZones {
		var zone zoneListing
		if err := json.Unmarshal(raw, &zone); err != nil {
			return nil, err
		}
		if domain.ZoneReadAllowed(env, zone.Name) {
			allowed = append(allowed, raw)
		}
	}

	return json.Marshal(allowed)
}

// CreateZone authorizes and proxies zone creation. The zone name comes from
// the request body; the grant must match it and carry admin.
func (h *ProxyHandler) CreateZone(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}

	var zoneDoc zoneListing
	if err := json.Unmarshal(payload, &zoneDoc); err != nil || zoneDoc.Name == "" {
		httputil.HandleBadRequestGin(c, apperrors.New("request body must carry a zone name"), h.logger)
		return
	}

	if err := h.requireZoneAdmin(env, zoneDoc.Name); err != nil {
		h.deny(c, env, err, payload)
		return
	}
	h.forward(c, env, payload)
}

// GetZone proxies a single zone read.
func (h *ProxyHandler) GetZone(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	if !domain.ZoneReadAllowed(env, c.Param("zone_id")) {
		h.deny(c, env, domain.ErrZoneNotAllowed, nil)
		return
	}
	h.forward(c, env, nil)
}

// UpdateZone authorizes and proxies zone metadata updates (admin required).
func (h *ProxyHandler) UpdateZone(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	if err := h.requireZoneAdmin(env, c.Param("zone_id")); err != nil {
		h.deny(c, env, err, payload)
		return
	}
	h.forward(c, env, payload)
}

// PatchZone authorizes and proxies an RRSet change batch.
func (h *ProxyHandler) PatchZone(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}

	zone, err := env.MatchZone(c.Param("zone_id"))
	if err != nil {
		h.deny(c, env, err, payload)
		return
	}

	var request domain.RRSetsRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		httputil.HandleBadRequestGin(c, apperrors.Wrap(err, "invalid rrsets payload"), h.logger)
		return
	}

	if err := zone.EnsureRRSetsAllowed(request); err != nil {
		h.deny(c, env, err, payload)
		return
	}
	h.forward(c, env, payload)
}

// DeleteZone authorizes and proxies zone deletion (admin required).
func (h *ProxyHandler) DeleteZone(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	if err := h.requireZoneAdmin(env, c.Param("zone_id")); err != nil {
		h.deny(c, env, err, nil)
		return
	}
	h.forward(c, env, nil)
}

// requireZoneAdmin resolves the governing grant and checks the admin flag,
// distinguishing no-grant from grant-without-admin.
func (h *ProxyHandler) requireZoneAdmin(env *domain.Environment, zoneName string) error {
	zone, err := env.MatchZone(zoneName)
	if err != nil {
		return err
	}
	if !zone.Admin {
		return domain.ErrZoneAdminNotAllowed
	}
	return nil
}

// ZoneAction authorizes and proxies notify/rectify triggers: any matching
// grant suffices.
func (h *ProxyHandler) ZoneAction(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	if _, err := env.MatchZone(c.Param("zone_id")); err != nil {
		h.deny(c, env, err, nil)
		return
	}
	h.forward(c, env, nil)
}

// SearchData proxies the upstream search API for environments with the
// global search grant.
func (h *ProxyHandler) SearchData(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	if !domain.SearchAllowed(env) {
		h.deny(c, env, domain.ErrSearchNotAllowed, nil)
		return
	}
	h.forward(c, env, nil)
}

// TSIGKeys proxies TSIG key operations for environments with the global
// TSIG key grant.
func (h *ProxyHandler) TSIGKeys(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	if !domain.TSIGKeysAllowed(env) {
		h.deny(c, env, domain.ErrResourceNotAllowed, payload)
		return
	}
	h.forward(c, env, payload)
}

// Cryptokeys proxies DNSSEC crypto key operations for environments with the
// global crypto key grant.
func (h *ProxyHandler) Cryptokeys(c *gin.Context) {
	env, ok := h.environment(c)
	if !ok {
		return
	}
	payload, ok := h.readBody(c)
	if !ok {
		return
	}
	if !domain.CryptokeysAllowed(env, c.Param("zone_id")) {
		h.deny(c, env, domain.ErrResourceNotAllowed, payload)
		return
	}
	h.forward(c, env, payload)
}
