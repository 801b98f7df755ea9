package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-api/internal/core/auth"
	"recipe-api/internal/core/cache"
	"recipe-api/internal/domain"
	"recipe-api/internal/service"
	"recipe-api/internal/transport/http/ez"
	mdw "recipe-api/internal/transport/http/middleware"
)

type UserHandler struct {
	users     *service.UserService
	jwt       *auth.JWTer
	blocklist cache.Blocklist
	log       *zap.Logger
}

func NewUserHandler(users *service.UserService, j *auth.JWTer, bl cache.Blocklist, l *zap.Logger) *UserHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserHandler{users: users, jwt: j, blocklist: bl, log: l}
}

type registerIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=5"`
	Name     string `json:"name" binding:"required,max=255"`
}

type tokenIn struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenOut struct {
	Token string `json:"token"`
}

type profileIn struct {
	Name     *string `json:"name" binding:"omitempty,max=255"`
	Password *string `json:"password" binding:"omitempty,min=5"`
}

func (h *UserHandler) MountAPI(public, private ez.EZ) {
	ez.RegisterAction(public, ez.Action[registerIn, userOut]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: ez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerIn) (userOut, error) {
			u, err := h.users.CreateUser(c.Request.Context(), domain.NewUser{
				Email: in.Email, Password: in.Password, Name: in.Name,
			})
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	ez.RegisterAction(public, ez.Action[tokenIn, tokenOut]{
		Method: http.MethodPost,
		Path:   "/users/token",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *tokenIn) (tokenOut, error) {
			u, err := h.users.Authenticate(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return tokenOut{}, err
			}
			tok, err := h.jwt.Issue(u.ID, u.Role())
			if err != nil {
				return tokenOut{}, ez.Internal("issue token failed", err)
			}
			return tokenOut{Token: tok}, nil
		},
	})

	ez.RegisterAction(private, ez.Action[struct{}, userOut]{
		Method: http.MethodGet,
		Path:   "/users/me",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (userOut, error) {
			u, err := h.users.Get(c.Request.Context(), ez.UserID(c))
			if err != nil {
				return userOut{}, err
			}
			return toUserOut(u), nil
		},
	})

	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		full := method == http.MethodPut
		ez.RegisterAction(private, ez.Action[profileIn, userOut]{
			Method: method,
			Path:   "/users/me",
			Binder: ez.BindJSON,
			Auth:   true,
			Handler: func(c *gin.Context, in *profileIn) (userOut, error) {
				if full && in.Name == nil {
					return userOut{}, ez.Invalid(map[string]string{"name": "this field is required"})
				}
				u, err := h.users.UpdateProfile(c.Request.Context(), ez.UserID(c), domain.UserPatch{
					Name: in.Name, Password: in.Password,
				})
				if err != nil {
					return userOut{}, err
				}
				return toUserOut(u), nil
			},
		})
	}

	ez.RegisterAction(private, ez.Action[struct{}, struct{}]{
		Method: http.MethodPost,
		Path:   "/users/logout",
		Binder: ez.BindNone,
		Auth:   true,
		Status: http.StatusNoContent,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			jti := c.GetString(mdw.KeyTokenID)
			exp := c.GetTime(mdw.KeyTokenExp)
			if err := h.blocklist.Revoke(c.Request.Context(), jti, time.Until(exp)); err != nil {
				return struct{}{}, ez.Internal("revoke token failed", err)
			}
			h.log.Info("token revoked", zap.Uint("user_id", ez.UserID(c)))
			return struct{}{}, nil
		},
	})
}
