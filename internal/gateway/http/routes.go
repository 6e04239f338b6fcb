package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/pdns-gateway/internal/audit"
	policyUsecase "github.com/allisson/pdns-gateway/internal/policy/usecase"
)

// Routes wires the gateway's handlers and middleware onto a gin engine.
type Routes struct {
	Proxy          *ProxyHandler
	Info           *InfoHandler
	Store          *policyUsecase.Store
	AuditLogger    *audit.Logger
	MetricsHandler nethttp.Handler // nil disables the metrics endpoint
	Logger         *slog.Logger

	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int
}

// Register attaches every route. The /info and /api groups require
// authentication; / and /health/pdns are public; /metrics uses its own
// Basic-auth gate.
func (r Routes) Register(router *gin.Engine) {
	router.GET("/", r.Info.Index)
	router.HEAD("/", r.Info.Index)
	router.GET("/health/pdns", r.Info.HealthPDNS)

	authenticated := []gin.HandlerFunc{
		AuthenticationMiddleware(r.Store, r.AuditLogger, r.Logger),
	}
	if r.RateLimitEnabled {
		authenticated = append(authenticated, RateLimitMiddleware(r.RateLimitRPS, r.RateLimitBurst, r.Logger))
	}

	info := router.Group("/info", authenticated...)
	{
		info.GET("/allowed", r.Info.Allowed)
		info.GET("/zone-allowed", r.Info.ZoneAllowed)
		info.GET("/audit-logs", r.Info.AuditLogs)
	}

	api := router.Group("/api", authenticated...)
	{
		api.GET("", r.Proxy.APIRoot)

		servers := api.Group("/v1/servers")
		{
			servers.GET("", r.Proxy.Servers)
			servers.GET("/:server_id", r.Proxy.Servers)
			servers.GET("/:server_id/configuration", r.Proxy.ResourceDenied)
			servers.GET("/:server_id/statistics", r.Proxy.ResourceDenied)
			servers.GET("/:server_id/search-data", r.Proxy.SearchData)

			servers.GET("/:server_id/zones", r.Proxy.ListZones)
			servers.POST("/:server_id/zones", r.Proxy.CreateZone)
			servers.GET("/:server_id/zones/:zone_id", r.Proxy.GetZone)
			servers.PUT("/:server_id/zones/:zone_id", r.Proxy.UpdateZone)
			servers.PATCH("/:server_id/zones/:zone_id", r.Proxy.PatchZone)
			servers.DELETE("/:server_id/zones/:zone_id", r.Proxy.DeleteZone)
			servers.PUT("/:server_id/zones/:zone_id/notify", r.Proxy.ZoneAction)
			servers.PUT("/:server_id/zones/:zone_id/rectify", r.Proxy.ZoneAction)

			servers.GET("/:server_id/zones/:zone_id/cryptokeys", r.Proxy.Cryptokeys)
			servers.POST("/:server_id/zones/:zone_id/cryptokeys", r.Proxy.Cryptokeys)
			servers.GET("/:server_id/zones/:zone_id/cryptokeys/:cryptokey_id", r.Proxy.Cryptokeys)
			servers.PUT("/:server_id/zones/:zone_id/cryptokeys/:cryptokey_id", r.Proxy.Cryptokeys)
			servers.DELETE("/:server_id/zones/:zone_id/cryptokeys/:cryptokey_id", r.Proxy.Cryptokeys)

			servers.GET("/:server_id/tsigkeys", r.Proxy.TSIGKeys)
			servers.POST("/:server_id/tsigkeys", r.Proxy.TSIGKeys)
			servers.GET("/:server_id/tsigkeys/:tsigkey_id", r.Proxy.TSIGKeys)
			servers.PUT("/:server_id/tsigkeys/:tsigkey_id", r.Proxy.TSIGKeys)
			servers.DELETE("/:server_id/tsigkeys/:tsigkey_id", r.Proxy.TSIGKeys)
		}
	}

	if r.MetricsHandler != nil {
		router.GET("/metrics",
			MetricsAuthMiddleware(r.Store, r.Logger),
			gin.WrapH(r.MetricsHandler),
		)
	}
}
