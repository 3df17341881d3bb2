package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roamnest/roamnest-backend/auth"
)

// SessionAuth resolves the session token header into an actor identity and
// stores it in the request context. Handlers never see session internals.
func SessionAuth(client auth.AuthClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("sessiontoken")

		if len(token) == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authentication"})
			c.Abort()
			return
		}

		actor, err := client.ResolveSession(c.Request.Context(), token)

		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authentication"})
			c.Abort()
			return
		}

		c.Set("actor", actor)
		c.Set("sessionToken", token)
	}
}

func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := c.MustGet("actor").(auth.Actor)

		if actor.Role != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
			c.Abort()
			return
		}
	}
}
