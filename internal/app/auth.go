package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"agenda-service/internal/config"
)

// AuthMiddleware accepts either a signed JWT (when JWT_HMAC_SECRET is set) or
// one of the comma-separated STATIC_TOKENS. On the JWT path the subject claim
// becomes the acting user id; static tokens act as the "service" user.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	staticTokens := strings.Split(strings.TrimSpace(cfg.StaticTokens), ",")
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)

	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing authorization"})
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid authorization format"})
			return
		}
		tokenStr := parts[1]

		// JWT path
		if jwtSecret != "" {
			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenMalformed
				}
				return []byte(jwtSecret), nil
			}, jwt.WithLeeway(5*time.Second))
			if err == nil {
				if sub, err := claims.GetSubject(); err == nil && sub != "" {
					c.Set("user_id", sub)
				}
				c.Set("permissions", permissionsClaim(claims))
				c.Next()
				return
			}
		}

		// static tokens act as the service identity with every permission
		for _, t := range staticTokens {
			if t = strings.TrimSpace(t); t != "" && tokenStr == t {
				c.Set("user_id", "service")
				c.Set("permissions", []string{PermissionAll})
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
	}
}

// permissionsClaim reads the token's "permissions" claim as a string list.
func permissionsClaim(claims jwt.MapClaims) []string {
	raw, ok := claims["permissions"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if p, ok := v.(string); ok {
			out = append(out, p)
		}
	}
	return out
}
