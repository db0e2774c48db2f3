// README: Auth middleware resolving the caller from a verified bearer token.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"travellite/internal/infra"
	"travellite/internal/types"
)

const (
	ctxUID     = "caller_uid"
	ctxRole    = "caller_role"
	ctxStation = "caller_station"
	ctxTier    = "caller_tier"
)

// Roles carried in the "role" claim. A missing claim means customer.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Auth requires a valid bearer token.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if !resolve(c, verifier, raw) {
			return
		}
		c.Next()
	}
}

// OptionalAuth resolves the caller when a token is sent and lets anonymous
// requests through. A bad token is still rejected.
func OptionalAuth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		raw, ok := bearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		if !resolve(c, verifier, raw) {
			return
		}
		c.Next()
	}
}

// RequireRole must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "requires role " + role})
			return
		}
		c.Next()
	}
}

func bearer(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	raw := strings.TrimSpace(h[len(prefix):])
	return raw, raw != ""
}

func resolve(c *gin.Context, verifier infra.TokenVerifier, raw string) bool {
	token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
	if err != nil || token == nil || token.UID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return false
	}
	role := claimString(token.Claims, "role")
	if role == "" {
		role = RoleCustomer
	}
	c.Set(ctxUID, types.ID(token.UID))
	c.Set(ctxRole, role)
	c.Set(ctxStation, types.ID(claimString(token.Claims, "station_id")))
	c.Set(ctxTier, claimString(token.Claims, "tier"))
	return true
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func CallerUID(c *gin.Context) types.ID {
	v, _ := c.Get(ctxUID)
	id, _ := v.(types.ID)
	return id
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxRole)
}

// CallerStation is the station a staff member is assigned to.
func CallerStation(c *gin.Context) types.ID {
	v, _ := c.Get(ctxStation)
	id, _ := v.(types.ID)
	return id
}

// CallerTier is the customer tier claim, empty when the token has none.
func CallerTier(c *gin.Context) string {
	return c.GetString(ctxTier)
}
