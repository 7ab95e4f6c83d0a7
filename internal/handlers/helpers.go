// internal/handlers/helpers.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

// currentActor builds the caller from the token claims, nil for anonymous requests.
func currentActor(c *gin.Context) *services.Actor {
	claims, ok := utils.GetClaimsFromContext(c)
	if !ok {
		return nil
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil
	}
	return &services.Actor{
		UserID:   userID,
		Username: claims.Username,
		Scopes:   claims.Scopes,
	}
}

// bindJSON decodes the body into dst, answering 400 when it is not valid JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func messageResponse(c *gin.Context, key string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["message"] = i18n.T(utils.GetLangFromContext(c), key)
	utils.SuccessResponse(c, data)
}

func nrVendaParam(c *gin.Context) (int, bool) {
	nr, err := strconv.Atoi(c.Param("nrVenda"))
	if err != nil || nr < 1 {
		utils.HandleError(c, utils.ErrValidation(i18n.KeyVendaInvalidNumber))
		return 0, false
	}
	return nr, true
}

func setSessionCookie(c *gin.Context, cookie config.CookieConfig, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(cookie.Name, token, maxAge, "/", "", cookie.Secure, true)
}

func clearSessionCookie(c *gin.Context, cookie config.CookieConfig) {
	setSessionCookie(c, cookie, "", -1)
}
