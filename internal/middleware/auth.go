// internal/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// AccessTokenHeader carries "Bearer <token>" from the front end.
const AccessTokenHeader = "x-access-token"

type Authenticator struct {
	jwt        *utils.JWTManager
	cookieName string
}

func NewAuthenticator(jwt *utils.JWTManager, cookieName string) *Authenticator {
	return &Authenticator{jwt: jwt, cookieName: cookieName}
}

// token returns the first non-empty credential from the access header, Authorization or the session cookie.
func (a *Authenticator) token(c *gin.Context) string {
	if token := utils.BearerToken(c.GetHeader(AccessTokenHeader)); token != "" {
		return token
	}
	if token := utils.BearerToken(c.GetHeader("Authorization")); token != "" {
		return token
	}
	if a.cookieName != "" {
		if raw, err := c.Cookie(a.cookieName); err == nil {
			return utils.SessionFromCookie(raw)
		}
	}
	return ""
}

func (a *Authenticator) authenticate(c *gin.Context) (*utils.JWTClaims, bool) {
	token := a.token(c)
	if token == "" {
		return nil, false
	}
	claims, err := a.jwt.Validate(token)
	if err != nil {
		return nil, false
	}

	c.Set(utils.ContextKeyClaims, claims)
	c.Set(utils.ContextKeyUserID, claims.UserID)
	c.Set(utils.ContextKeyUsername, claims.Username)
	return claims, true
}

func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.token(c) == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if _, ok := a.authenticate(c); !ok {
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Optional sets the claims when a valid token is present and never rejects the request.
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		a.authenticate(c)
		c.Next()
	}
}

// Authorize requires one of scopes. It must run after Required.
func (a *Authenticator) Authorize(scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := utils.GetClaimsFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if !claims.HasAnyScope(scopes...) {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthForbidden))
			c.Abort()
			return
		}
		c.Next()
	}
}
