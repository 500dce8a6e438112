package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/inspectrack/inspectrack/internal/common/cnst"
	"github.com/inspectrack/inspectrack/internal/i18n"
)

// LangMiddleware resolves the request language once so responses and
// translated errors agree on it.
func LangMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(cnst.XLang, i18n.LanguageFromRequest(c.Request))
		c.Next()
	}
}
