package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"recipe-api/internal/transport/http/ez"
	resp "recipe-api/internal/transport/http/response"
)

// Timeout bounds the request context; handlers see it through c.Request.Context().
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			ez.Abort(c, &ez.AErr{Code: resp.CodeTimeout, Msg: "timeout"})
		}
	}
}
