// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
	cookie      config.CookieConfig
}

// FavoriteRequest toggles one favorite. add is accepted in place of favorito.
type FavoriteRequest struct {
	Referencia string `json:"referencia"`
	Favorito   *bool  `json:"favorito"`
	Add        *bool  `json:"add,omitempty"`
}

func NewUserHandler(userService *services.UserService, cookie config.CookieConfig) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookie:      cookie,
	}
}

// GET /menu/utilizadores
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.userService.List(c.Request.Context(), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(result.Users, result.Total, params))
}

// GET /menu/utilizadores/:username
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByUsername(c.Request.Context(), currentActor(c), c.Param("username"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// GET /menu/utilizador/me
func (h *UserHandler) GetMe(c *gin.Context) {
	actor := currentActor(c)
	if actor == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	user, err := h.userService.GetByUsername(c.Request.Context(), actor, actor.Username)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// PUT /menu/utilizadores/:username
// Renaming your own account ends the session since the token carries the old username.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.userService.Update(c.Request.Context(), currentActor(c), c.Param("username"), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	data := gin.H{"user": result.User, "reauth": result.Reauth}
	if result.Reauth {
		clearSessionCookie(c, h.cookie)
		data["reauthMessage"] = i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthReauthRequired)
	}
	messageResponse(c, i18n.KeyUserUpdated, data)
}

// DELETE /menu/utilizadores/:username
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor := currentActor(c)
	user, err := h.userService.Delete(c.Request.Context(), actor, c.Param("username"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if actor.Owns(user) {
		clearSessionCookie(c, h.cookie)
	}
	messageResponse(c, i18n.KeyUserDeleted, gin.H{"username": user.Username})
}

// PUT /menu/utilizador/:username/profile-picture
func (h *UserHandler) UpdateProfilePicture(c *gin.Context) {
	var req struct {
		FotoPerfil string `json:"fotoPerfil"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfilePicture(c.Request.Context(), currentActor(c), c.Param("username"), req.FotoPerfil)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	messageResponse(c, i18n.KeyUserProfilePictureUpdated, gin.H{"user": user})
}

// GET /menu/utilizador/favoritos
func (h *UserHandler) ListFavorites(c *gin.Context) {
	favorites, err := h.userService.ListFavorites(c.Request.Context(), currentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"favoritos": favorites})
}

// PUT /menu/utilizador/favoritos
func (h *UserHandler) ToggleFavorite(c *gin.Context) {
	var req FavoriteRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Favorito == nil {
		req.Favorito = req.Add
	}
	if req.Referencia == "" || req.Favorito == nil {
		utils.HandleError(c, utils.ErrValidation(i18n.KeyValidationRequired, "referencia, favorito"))
		return
	}

	favorites, err := h.userService.ToggleFavorite(c.Request.Context(), currentActor(c), req.Referencia, *req.Favorito)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	messageResponse(c, i18n.KeyUserFavoritesUpdated, gin.H{"favoritos": favorites})
}

// GET /menu/utilizador/filtrarfavoritos
func (h *UserHandler) FavoriteProducts(c *gin.Context) {
	products, err := h.userService.FavoriteProducts(c.Request.Context(), currentActor(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}
