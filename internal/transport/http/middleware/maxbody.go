package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-api/internal/transport/http/ez"
	resp "recipe-api/internal/transport/http/response"
)

// MaxBodyBytes bounds the request body. A declared Content-Length over n is
// refused at once; otherwise reads past n fail with *http.MaxBytesError,
// which the action layer reports as 413.
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			ez.Abort(c, &ez.AErr{Code: resp.CodeTooLarge, Msg: "request body too large"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
