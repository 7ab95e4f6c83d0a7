// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// I18nMiddleware picks the request language from ?lang= or Accept-Language, falling back to defaultLang.
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = i18n.DefaultLanguage
	}
	return func(c *gin.Context) {
		lang := ParseLanguage(c.Query("lang"))
		if lang == "" {
			lang = ParseLanguage(c.GetHeader("Accept-Language"))
		}
		if lang == "" {
			lang = defaultLang
		}

		c.Set(utils.ContextKeyLang, lang)
		c.Next()
	}
}

// ParseLanguage maps a header such as "pt-PT,pt;q=0.9,en;q=0.8" to its first supported language.
func ParseLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.ToLower(strings.TrimSpace(strings.Split(part, ";")[0]))
		switch {
		case tag == "pt" || strings.HasPrefix(tag, "pt-") || strings.HasPrefix(tag, "pt_"):
			return "pt"
		case tag == "en" || strings.HasPrefix(tag, "en-") || strings.HasPrefix(tag, "en_"):
			return "en"
		}
	}
	return ""
}
