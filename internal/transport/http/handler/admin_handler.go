package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"recipe-api/internal/domain"
	"recipe-api/internal/service"
	"recipe-api/internal/transport/http/ez"
)

type AdminHandler struct {
	db    *gorm.DB
	users *service.UserService
}

func NewAdminHandler(db *gorm.DB, users *service.UserService) *AdminHandler {
	return &AdminHandler{db: db, users: users}
}

type adminUserOut struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsActive    bool   `json:"is_active"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

type staffIn struct {
	Staff *bool `json:"staff" binding:"required"`
}

func (h *AdminHandler) MountAdmin(admin ez.EZ) {
	ez.MountAdmin(admin, h.db, ez.AdminResource[domain.User]{
		Path:         "/users",
		ListDisplay:  []string{"email", "name"},
		Fields:       []string{"email", "name", "is_active", "is_staff", "is_superuser", "created_at", "updated_at"},
		Ordering:     []string{"id"},
		SearchFields: []string{"email", "name"},
	})
	ez.MountAdmin(admin, h.db, ez.AdminResource[domain.Recipe]{
		Path:         "/recipes",
		ListDisplay:  []string{"user_id", "title", "time_minutes", "price"},
		Fields:       []string{"user_id", "title", "description", "time_minutes", "price", "link", "image", "created_at", "updated_at"},
		Ordering:     []string{"-id"},
		SearchFields: []string{"title"},
	})
	ez.MountAdmin(admin, h.db, ez.AdminResource[domain.Tag]{
		Path:         "/tags",
		ListDisplay:  []string{"user_id", "name"},
		Ordering:     []string{"-name"},
		SearchFields: []string{"name"},
	})
	ez.MountAdmin(admin, h.db, ez.AdminResource[domain.Ingredient]{
		Path:         "/ingredients",
		ListDisplay:  []string{"user_id", "name"},
		Ordering:     []string{"-name"},
		SearchFields: []string{"name"},
	})

	ez.RegisterAction(admin, ez.Action[struct{}, adminUserOut]{
		Method:  http.MethodPost,
		Path:    "/users/:id/ban",
		Binder:  ez.BindNone,
		Handler: h.setActive(false),
	})
	ez.RegisterAction(admin, ez.Action[struct{}, adminUserOut]{
		Method:  http.MethodPost,
		Path:    "/users/:id/unban",
		Binder:  ez.BindNone,
		Handler: h.setActive(true),
	})
	ez.RegisterAction(admin, ez.Action[staffIn, adminUserOut]{
		Method: http.MethodPost,
		Path:   "/users/:id/staff",
		Binder: ez.BindJSON,
		Roles:  []string{domain.RoleSuperuser},
		Handler: func(c *gin.Context, in *staffIn) (adminUserOut, error) {
			id, err := ez.ParamID(c, "id")
			if err != nil {
				return adminUserOut{}, err
			}
			u, err := h.users.SetStaff(c.Request.Context(), id, *in.Staff)
			if err != nil {
				return adminUserOut{}, err
			}
			return toAdminUserOut(u), nil
		},
	})
}

func (h *AdminHandler) setActive(active bool) func(*gin.Context, *struct{}) (adminUserOut, error) {
	return func(c *gin.Context, _ *struct{}) (adminUserOut, error) {
		id, err := ez.ParamID(c, "id")
		if err != nil {
			return adminUserOut{}, err
		}
		if !active && id == ez.UserID(c) {
			return adminUserOut{}, ez.BadRequest("cannot ban yourself")
		}
		u, err := h.users.SetActive(c.Request.Context(), id, active)
		if err != nil {
			return adminUserOut{}, err
		}
		return toAdminUserOut(u), nil
	}
}

func toAdminUserOut(u *domain.User) adminUserOut {
	return adminUserOut{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}
