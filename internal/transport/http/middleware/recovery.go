package middleware

import (
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-api/internal/transport/http/ez"
	resp "recipe-api/internal/transport/http/response"
)

// Recovery logs panics with their stack and answers with a 500 envelope.
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(l, true, func(c *gin.Context, _ any) {
		ez.Abort(c, &ez.AErr{Code: resp.CodeServerError, Msg: "internal error"})
	})
}
