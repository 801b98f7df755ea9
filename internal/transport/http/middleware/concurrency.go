package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"recipe-api/internal/transport/http/ez"
	resp "recipe-api/internal/transport/http/response"
)

// ConcurrencyLimit caps in-flight requests to protect the database. A request
// waits at most wait for a slot before it is turned away with 503.
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			err := sem.Acquire(ctx, 1)
			cancel()
			if err != nil {
				ez.Abort(c, &ez.AErr{Code: resp.CodeUnavailable, Msg: "server busy"})
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
