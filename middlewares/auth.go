package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"raceconnect/utils"
)

const (
	EmailKey  = "email"
	ClaimsKey = "claims"
)

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized access"})
}

// Authenticate reads the session cookie and stores the verified email and
// claims on the context. Every failure is a plain 401.
func Authenticate(tokens *utils.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(utils.TokenCookieName)
		if err != nil || strings.TrimSpace(token) == "" {
			unauthorized(c)
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), token)
		if err != nil {
			logger := zerolog.Ctx(c.Request.Context())
			if errors.Is(err, utils.ErrInvalidToken) || errors.Is(err, utils.ErrRevokedToken) {
				logger.Debug().Err(err).Msg("token rejected")
			} else {
				// the revocation store is unreachable, every session fails
				logger.Error().Err(err).Msg("token verification failed")
			}
			unauthorized(c)
			return
		}

		c.Set(EmailKey, claims.Email)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireOwner only lets the request through when the :param path segment
// equals the authenticated email. It must run after Authenticate.
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(EmailKey)
		if email == "" || c.Param(param) != email {
			unauthorized(c)
			return
		}
		c.Next()
	}
}
