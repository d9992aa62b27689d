package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"raceconnect/utils"
)

// POST /jwt
func (h *handlers) issueToken(c *gin.Context) {
	var id utils.Identity
	if err := c.ShouldBindJSON(&id); err != nil {
		badRequest(c)
		return
	}

	token, err := h.Tokens.Issue(id)
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not authenticate user."})
		return
	}

	http.SetCookie(c.Writer, h.Cookies.TokenCookie(token))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET|POST /logout
func (h *handlers) logout(c *gin.Context) {
	if token, err := c.Cookie(utils.TokenCookieName); err == nil && token != "" {
		if err := h.Tokens.Revoke(c.Request.Context(), token); err != nil {
			zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("revoke token")
		}
	}

	http.SetCookie(c.Writer, h.Cookies.ClearedCookie())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
