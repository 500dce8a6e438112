package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/tenant"
)

// Context keys set by the auth middlewares.
const (
	ClaimsKey       = "claims"
	UserKey         = "user"
	PortalClaimsKey = "portalClaims"
	PortalCompany   = "portalCompany"
)

// JWTAuthMiddleware creates a middleware that validates employee JWT
// tokens. The request carries a tenant scope derived from the
// employee's assigned companies; super admins get the wildcard scope.
// An employee with no assignments sees no tenant-owned data.
func JWTAuthMiddleware(jwtService *jwt.Service, db database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		// Disabled accounts lose access immediately, not at token expiry
		user, err := db.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		scope := tenant.Companies(user.CompanyIDs()...)
		if user.Role == database.RoleSuperAdmin {
			scope = tenant.AllCompanies()
		}
		ctx := tenant.WithScope(c.Request.Context(), scope)

		c.Request = c.Request.WithContext(ctx)
		c.Set(ClaimsKey, claims)
		c.Set(UserKey, user)
		c.Next()
	}
}

// GetClaims returns the employee claims set by JWTAuthMiddleware.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// GetUser returns the authenticated employee set by JWTAuthMiddleware.
func GetUser(c *gin.Context) (*database.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*database.User)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
