package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"recipe-api/internal/core/auth"
	"recipe-api/internal/core/cache"
	"recipe-api/internal/core/config"
	"recipe-api/internal/core/server"
	mdw "recipe-api/internal/transport/http/middleware"
	resp "recipe-api/internal/transport/http/response"
)

// Deps is everything the engines need besides the modules themselves.
type Deps struct {
	Log         *zap.Logger
	DB          *gorm.DB
	JWT         *auth.JWTer
	Blocklist   cache.Blocklist
	Limits      config.Limits
	CORSOrigins []string
	// MediaDir is served at MediaURL when images are stored locally.
	MediaDir string
	MediaURL string
	Modules  *Registry
}

func newEngine(name string, d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := server.NewRouter(server.Options{Name: name, CORSOrigins: d.CORSOrigins})
	r.Use(
		mdw.RequestID(),
		mdw.AccessLog(d.Log),
		mdw.Recovery(d.Log),
		mdw.Metrics(name),
	)
	lim := d.Limits
	if lim.GlobalRPS > 0 {
		r.Use(mdw.RateLimit(rate.Limit(lim.GlobalRPS), max(1, lim.GlobalBurst)))
	}
	if lim.RPS > 0 {
		r.Use(mdw.RateLimitPerIP(rate.Limit(lim.RPS), max(1, lim.Burst), 10*time.Minute))
	}
	if lim.Concurrency > 0 {
		r.Use(mdw.ConcurrencyLimit(lim.Concurrency, time.Second))
	}
	if lim.BodyBytes > 0 {
		r.Use(mdw.MaxBodyBytes(lim.BodyBytes))
	}
	if lim.TimeoutSec > 0 {
		r.Use(mdw.Timeout(time.Duration(lim.TimeoutSec) * time.Second))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(resp.CodeNotFound, ""))
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, resp.Error(resp.CodeMethodNotAllowed, ""))
	})
	r.GET("/health", health(d.DB))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, resp.Error(resp.CodeUnavailable, "database unavailable"))
			return
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	}
}
