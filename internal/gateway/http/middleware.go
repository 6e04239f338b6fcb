package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdns-gateway/internal/audit"
	"github.com/allisson/pdns-gateway/internal/httputil"
	"github.com/allisson/pdns-gateway/internal/metrics"
	"github.com/allisson/pdns-gateway/internal/policy/domain"
	policyUsecase "github.com/allisson/pdns-gateway/internal/policy/usecase"
)

// extractToken returns the caller's bearer token. The X-API-Key header is
// checked first for PowerDNS client compatibility; the standard Authorization
// Bearer form (case-insensitive scheme) is accepted as well.
func extractToken(c *gin.Context) string {
	if token := c.GetHeader("X-API-Key"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	const bearerPrefix = "bearer "
	if len(authHeader) < len(bearerPrefix) ||
		!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return authHeader[len(bearerPrefix):]
}

// isMutating reports whether the request method requires an audit record.
func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// AuthenticationMiddleware resolves the caller's token to an environment via
// the policy store and places it in the request context.
//
// Error handling:
//   - Missing token → 401 Unauthorized
//   - Unknown token → 401 Unauthorized
//
// Unauthenticated mutating requests are still audited, with the environment
// recorded as UNAUTHORIZED.
func AuthenticationMiddleware(
	store *policyUsecase.Store,
	auditLogger *audit.Logger,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			logger.Debug("authentication failed: no token presented")
			rejectUnauthenticated(c, auditLogger, logger)
			return
		}

		env, err := store.ResolveToken(token)
		if err != nil {
			logger.Debug("authentication failed: unknown token")
			rejectUnauthenticated(c, auditLogger, logger)
			return
		}

		ctx := WithEnvironment(c.Request.Context(), env)
		c.Request = c.Request.WithContext(ctx)

		logger.Debug("authentication successful", slog.String("environment", env.Name))
		c.Next()
	}
}

func rejectUnauthenticated(c *gin.Context, auditLogger *audit.Logger, logger *slog.Logger) {
	httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, logger)
	if isMutating(c.Request.Method) && auditLogger != nil {
		if err := auditLogger.LogUnauthorized(c.Request.Method, c.Request.URL.Path, nil, http.StatusUnauthorized); err != nil {
			logger.Error("failed to write audit entry", slog.Any("error", err))
		}
	}
	c.Abort()
}

// MetricsAuthMiddleware gates the metrics endpoint behind HTTP Basic auth.
// The password is the environment's bearer token, the username must equal the
// resolved environment's name, and the environment must carry the metrics
// grant.
func MetricsAuthMiddleware(store *policyUsecase.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, logger)
			c.Abort()
			return
		}

		env, err := store.ResolveToken(password)
		if err != nil {
			c.Header("WWW-Authenticate", `Basic realm="metrics"`)
			httputil.HandleErrorGin(c, domain.ErrNotAuthenticated, logger)
			c.Abort()
			return
		}

		if !domain.MetricsAllowed(env, username) {
			logger.Debug("metrics access denied",
				slog.String("environment", env.Name),
				slog.String("claimed_name", username))
			httputil.HandleErrorGin(c, domain.ErrMetricsNotAllowed, logger)
			c.Abort()
			return
		}

		c.Next()
	}
}

// EnvironmentMetricsMiddleware records one request per environment after the
// handler chain completes. Requests that failed authentication are attributed
// to the UNAUTHORIZED pseudo-environment.
func EnvironmentMetricsMiddleware(gm metrics.GatewayMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		environment := audit.UnauthorizedEnvironment
		if env, ok := GetEnvironment(c.Request.Context()); ok {
			environment = env.Name
		}
		gm.RecordEnvironmentRequest(c.Request.Context(), environment, c.Request.Method, c.Writer.Status())
	}
}
