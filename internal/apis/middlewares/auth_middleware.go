package middlewares

import (
	"net/http"
	"pbm-portal/internal/apis/dtos"
	"pbm-portal/internal/repositories"
	"pbm-portal/internal/utils"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	ClaimsKey = "claims"
)

// AuthMiddleware validates the bearer token and rejects revoked ones. When
// required is false, requests without an Authorization header pass through
// anonymously; a header that is present must still be valid.
func AuthMiddleware(jwtService utils.JWTService, tokenRepo repositories.TokenRepository, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if !required {
				c.Next()
				return
			}
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization format. Use: Bearer <token>")
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		revoked, err := tokenRepo.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			log.Error().Str("component", "auth").Err(err).Msg("revocation check failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, dtos.ErrorResponse{Error: "Internal Server Error"})
			return
		}
		if revoked {
			abortUnauthorized(c, "Token has been revoked")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dtos.ErrorResponse{Error: message})
}

// ClaimsFrom returns the claims stored by AuthMiddleware, if any.
func ClaimsFrom(c *gin.Context) *utils.Claims {
	value, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := value.(*utils.Claims)
	return claims
}
