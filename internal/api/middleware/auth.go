package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Verifier resolves a session token to an agent name.
type Verifier interface {
	Verify(token string) (string, bool)
}

// agentKey is the context key the handlers read the agent name from.
const agentKey = "agent"

// RequireToken rejects requests lacking a valid bearer token. The resolved
// agent name is stored on the request context for audit logging.
func RequireToken(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		agent, ok := verifier.Verify(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(agentKey, agent)
		c.Next()
	}
}

// AgentName returns the authenticated agent for the request, if any.
func AgentName(c *gin.Context) string {
	return c.GetString(agentKey)
}
