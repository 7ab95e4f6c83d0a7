// internal/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	cookie      config.CookieConfig
	loginURL    string
}

func NewAuthHandler(authService *services.AuthService, cookie config.CookieConfig, frontend config.FrontendConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		loginURL:    frontend.BaseURL,
	}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req, currentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthRegisterSuccess),
		"user":    user,
	})
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	setSessionCookie(c, h.cookie, authResponse.Token, authResponse.ExpiresIn)
	utils.SuccessResponse(c, gin.H{
		"message":    i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLoginSuccess),
		"user":       authResponse.User,
		"token":      authResponse.Token,
		"token_type": authResponse.TokenType,
		"scopes":     authResponse.Scopes,
		"expires_in": authResponse.ExpiresIn,
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	clearSessionCookie(c, h.cookie)
	messageResponse(c, i18n.KeyAuthLogoutSuccess, nil)
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		utils.HandleError(c, err)
		return
	}

	messageResponse(c, i18n.KeyAuthResetSent, nil)
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), &req); err != nil {
		utils.HandleError(c, err)
		return
	}

	messageResponse(c, i18n.KeyAuthPasswordReset, nil)
}

// GET /auth/verify-email?token=
// Renders an HTML page since the link is opened from the email client.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	page := gin.H{
		"Lang":       lang,
		"LoginURL":   h.loginURL,
		"LoginLabel": i18n.T(lang, i18n.KeyAuthVerifyPageLogin),
	}

	_, err := h.authService.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		status := utils.KindOf(err).Status()
		if status == http.StatusInternalServerError {
			utils.HandleError(c, err)
			return
		}
		page["Success"] = false
		page["Title"] = i18n.T(lang, i18n.KeyAuthVerifyPageFailed)
		page["Message"] = i18n.T(lang, i18n.KeyAuthInvalidVerificationToken)
		c.HTML(status, "verify_email.html", page)
		return
	}

	page["Success"] = true
	page["Title"] = i18n.T(lang, i18n.KeyAuthVerifyPageTitle)
	page["Message"] = i18n.T(lang, i18n.KeyAuthEmailVerified)
	c.HTML(http.StatusOK, "verify_email.html", page)
}

// GET /auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":   user,
		"scopes": actor.Scopes,
	})
}
