package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skins-market/internal/service/account"
)

const claimsCtxKey = "claims"

type tokenParser interface {
	ParseAccess(token string) (*account.Claims, error)
}

func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

// authRequired validates the bearer access token and stores its claims on the context.
func authRequired(tokens tokenParser, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			respondError(c, log, account.ErrInvalidToken)
			return
		}
		claims, err := tokens.ParseAccess(strings.TrimSpace(raw))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.Set(claimsCtxKey, claims)
		c.Next()
	}
}

func staffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := claimsFrom(c); claims == nil || !claims.Staff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *account.Claims {
	v, ok := c.Get(claimsCtxKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*account.Claims)
	return claims
}

// userID is only valid behind authRequired.
func userID(c *gin.Context) int64 {
	if claims := claimsFrom(c); claims != nil {
		return claims.UserID
	}
	return 0
}
