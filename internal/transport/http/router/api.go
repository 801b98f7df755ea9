package router

import (
	"github.com/gin-gonic/gin"

	"recipe-api/internal/transport/http/ez"
	mdw "recipe-api/internal/transport/http/middleware"
)

// NewAPIEngine serves the user facing API under /api/v1.
func NewAPIEngine(d Deps) *gin.Engine {
	r := newEngine("api", d)
	if d.MediaDir != "" && d.MediaURL != "" {
		r.Static(d.MediaURL, d.MediaDir)
	}

	api := r.Group("/api/v1")
	private := api.Group("")
	private.Use(mdw.AuthJWT(d.JWT, d.Blocklist, d.Log))

	d.Modules.MountAPI(ez.New(api, d.Log), ez.New(private, d.Log))
	return r
}
