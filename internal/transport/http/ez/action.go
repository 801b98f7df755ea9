package ez

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	resp "recipe-api/internal/transport/http/response"
)

// Context keys written by the auth middleware.
const (
	KeyUserID = "userId"
	KeyRole   = "role"
)

// EZ registers actions on a router group.
type EZ struct {
	g   *gin.RouterGroup
	log *zap.Logger
}

func New(g *gin.RouterGroup, l *zap.Logger) EZ {
	if l == nil {
		l = zap.NewNop()
	}
	return EZ{g: g, log: l}
}

func (e EZ) Group() *gin.RouterGroup { return e.g }

type Binder string

const (
	BindJSON  Binder = "json"  // request body
	BindQuery Binder = "query" // ?a=b
	BindNone  Binder = "none"  // handler reads c.Param / c.FormFile itself
)

// Action describes one endpoint: I is the bound input, O the response data.
type Action[I any, O any] struct {
	Method string
	Path   string
	Binder Binder
	Auth   bool     // require an authenticated user
	Roles  []string // optional role whitelist, implies Auth
	// Status on success; 0 means 200. 204 sends no body.
	Status  int
	Handler func(c *gin.Context, in *I) (O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		if a.Auth || len(a.Roles) > 0 {
			if UserID(c) == 0 {
				Abort(c, Unauthorized("unauthorized"))
				return
			}
			if len(a.Roles) > 0 && !slices.Contains(a.Roles, c.GetString(KeyRole)) {
				Abort(c, Forbidden("forbidden"))
				return
			}
		}

		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			Abort(c, bindError(bindErr))
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			e.fail(c, err)
			return
		}
		switch a.Status {
		case http.StatusNoContent:
			c.Status(http.StatusNoContent)
		case 0:
			c.JSON(http.StatusOK, resp.OK(out))
		default:
			c.JSON(a.Status, resp.OK(out))
		}
	}

	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, h)
	case http.MethodPut:
		e.g.PUT(a.Path, h)
	case http.MethodPatch:
		e.g.PATCH(a.Path, h)
	case http.MethodDelete:
		e.g.DELETE(a.Path, h)
	default:
		e.g.POST(a.Path, h)
	}
}

func (e EZ) fail(c *gin.Context, err error) {
	ae := FromError(err)
	if ae.Code >= resp.CodeServerError {
		e.log.Error("action failed",
			zap.String("path", c.FullPath()),
			zap.String("rid", c.GetString("rid")),
			zap.Error(err),
		)
	}
	Abort(c, ae)
}

// Abort writes err as an envelope with the matching HTTP status.
func Abort(c *gin.Context, err error) {
	ae := FromError(err)
	var data any
	if len(ae.Fields) > 0 {
		data = gin.H{"fields": ae.Fields}
	}
	c.AbortWithStatusJSON(resp.Status(ae.Code), resp.Fail(ae.Code, ae.Msg, data))
}

// UserID is the authenticated user's id, 0 when anonymous.
func UserID(c *gin.Context) uint {
	return c.GetUint(KeyUserID)
}

// ParamID reads a numeric path parameter. Anything else cannot name a record,
// so it is reported as not found.
func ParamID(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, NotFound("not found")
	}
	return uint(n), nil
}
