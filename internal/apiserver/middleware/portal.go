package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/apiserver/database"
	"github.com/inspectrack/inspectrack/internal/auth/jwt"
	"github.com/inspectrack/inspectrack/internal/tenant"
)

// PortalAuthMiddleware creates a middleware that validates portal
// viewer tokens and pins the request to the viewer's single company.
// Magic-link tokens carry a JTI and are only accepted by the verify
// endpoint, never here.
func PortalAuthMiddleware(jwtService *jwt.Service, db database.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		claims, err := jwtService.ValidatePortalToken(token)
		if err != nil || claims.ID != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx := tenant.WithScope(c.Request.Context(), tenant.Company(claims.CompanyID))
		company, err := db.GetCompanyByID(ctx, claims.CompanyID)
		if err != nil || company.Status != database.CompanyActive {
			// Deactivated companies lose portal access immediately
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(PortalClaimsKey, claims)
		c.Set(PortalCompany, company)
		c.Next()
	}
}

// GetPortalClaims returns the viewer claims set by PortalAuthMiddleware.
func GetPortalClaims(c *gin.Context) (*jwt.PortalClaims, bool) {
	v, ok := c.Get(PortalClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.PortalClaims)
	return claims, ok
}

// GetPortalCompany returns the viewer's company set by
// PortalAuthMiddleware.
func GetPortalCompany(c *gin.Context) (*database.Company, bool) {
	v, ok := c.Get(PortalCompany)
	if !ok {
		return nil, false
	}
	company, ok := v.(*database.Company)
	return company, ok
}
