package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/patrickrooney09/tiba-update-user/internal/logger"
)

// AuthMiddleware validates the bearer token and, when a revocation store is
// configured, rejects tokens whose jti has been revoked via logout. Pass a
// nil store to skip the revocation check.
func AuthMiddleware(accessTokenSecret string, revoked *RevocationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			c.Abort()
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, ErrInvalidTokenType):
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token type"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			c.Abort()
			return
		}

		if revoked != nil {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Redis being down must not lock every staff member out.
				logger.WithError(err).Error("revocation check failed, allowing request")
			} else if isRevoked {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Session has been revoked"})
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_role", claims.Role)
		c.Set("token_jti", claims.ID)
		c.Set("token_expires_at", claims.ExpiresAt.Time)

		c.Next()
	}
}

func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User role not found"})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid role type"})
			c.Abort()
			return
		}

		if roleStr != requiredRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(int)
	if !ok {
		return 0, false
	}

	return id, true
}

func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get("user_email")
	if !exists {
		return "", false
	}

	emailStr, ok := email.(string)
	if !ok {
		return "", false
	}

	return emailStr, true
}

// GetTokenSession returns the jti and expiry of the validated access token.
// Logout uses these to revoke the session for its remaining lifetime.
func GetTokenSession(c *gin.Context) (jti string, expiresAt time.Time, ok bool) {
	rawJTI, exists := c.Get("token_jti")
	if !exists {
		return "", time.Time{}, false
	}
	jti, ok = rawJTI.(string)
	if !ok {
		return "", time.Time{}, false
	}

	rawExp, exists := c.Get("token_expires_at")
	if !exists {
		return "", time.Time{}, false
	}
	expiresAt, ok = rawExp.(time.Time)
	if !ok {
		return "", time.Time{}, false
	}

	return jti, expiresAt, true
}
