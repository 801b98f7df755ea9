package middleware

import (
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-api/internal/core/auth"
	"recipe-api/internal/core/cache"
	"recipe-api/internal/transport/http/ez"
)

// Keys for the parsed token, used by logout.
const (
	KeyTokenID  = "jti"
	KeyTokenExp = "tokenExp"
)

// AuthJWT requires a valid, unrevoked bearer token. With roles given, the
// token's role must be one of them. Every rejection before the role check
// looks the same to the client.
func AuthJWT(j *auth.JWTer, bl cache.Blocklist, l *zap.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || raw == "" {
			ez.Abort(c, ez.Unauthorized("unauthorized"))
			return
		}
		claims, err := j.Parse(raw)
		if err != nil {
			ez.Abort(c, ez.Unauthorized("unauthorized"))
			return
		}
		if bl != nil {
			revoked, err := bl.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				l.Error("blocklist lookup failed", zap.Error(err))
				ez.Abort(c, ez.Internal("internal error", err))
				return
			}
			if revoked {
				ez.Abort(c, ez.Unauthorized("unauthorized"))
				return
			}
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			ez.Abort(c, ez.Forbidden("forbidden"))
			return
		}
		c.Set(ez.KeyUserID, claims.UID)
		c.Set(ez.KeyRole, claims.Role)
		c.Set(KeyTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(KeyTokenExp, claims.ExpiresAt.Time)
		} else {
			c.Set(KeyTokenExp, time.Time{})
		}
		c.Next()
	}
}
