package router

import (
	"github.com/gin-gonic/gin"

	"recipe-api/internal/domain"
	"recipe-api/internal/transport/http/ez"
	mdw "recipe-api/internal/transport/http/middleware"
)

// NewAdminEngine serves /admin/v1 to staff and superusers only.
func NewAdminEngine(d Deps) *gin.Engine {
	r := newEngine("admin", d)

	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, d.Blocklist, d.Log, domain.RoleStaff, domain.RoleSuperuser))

	d.Modules.MountAdmin(ez.New(admin, d.Log))
	return r
}
