package restapi

import (
	"net/http/pprof"
	"time"

	"token_screener/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	CORSOrigins     []string
	RateLimitMax    int
	RateLimitWindow time.Duration
	EnableMetrics   bool
	EnablePprof     bool
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(tokenHandler *TokenHandler, cfg RouterConfig, logger *zap.Logger, m *metrics.Metrics) *gin.Engine {
	router := gin.New()

	router.Use(CORS(cfg.CORSOrigins))
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/healthz", tokenHandler.HealthHandler)
	if cfg.EnableMetrics {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := router.Group("/api")
	api.Use(RateLimit(cfg.RateLimitMax, cfg.RateLimitWindow, m))
	{
		api.GET("/tokens", tokenHandler.GetTokensHandler)
		api.POST("/refresh-cache", tokenHandler.RefreshCacheHandler)
		api.POST("/compare", tokenHandler.CompareHandler)
	}

	if cfg.EnablePprof {
		pprofRouter := router.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		}
	}

	return router
}
