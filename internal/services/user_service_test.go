package services_test

import (
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

func strPtr(v string) *string {
	return &v
}

func (s *ServiceSuite) TestRenameKeepsVendas() {
	s.product("REF1", "Martelo", 10, 10)
	_, ana := s.user("ana")

	_, err := s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)
	_, err = s.vendas.Finalize(s.ctx, ana)
	s.Require().NoError(err)

	result, err := s.users.Update(s.ctx, ana, "ana", &services.UpdateUserRequest{Username: strPtr("ana.silva")})
	s.Require().NoError(err)
	s.True(result.Reauth)
	s.Equal("ana.silva", result.User.Username)

	vendas, err := s.vendas.ListForUser(s.ctx, ana, true)
	s.Require().NoError(err)
	s.Require().Len(vendas, 1)
	s.Equal("ana.silva", vendas[0].Cliente.UsernameUtilizador)

	_, err = s.users.GetByUsername(s.ctx, ana, "ana")
	s.requireKind(err, utils.KindNotFound)
}

func (s *ServiceSuite) TestUpdateRules() {
	_, ana := s.user("ana")
	s.user("bruno")
	_, admin := s.user("admin", models.ScopeAdministrador)

	_, err := s.users.Update(s.ctx, ana, "bruno", &services.UpdateUserRequest{Nome: strPtr("X")})
	s.requireKind(err, utils.KindForbidden)

	_, err = s.users.Update(s.ctx, ana, "ana", &services.UpdateUserRequest{Username: strPtr("bruno")})
	s.requireKind(err, utils.KindConflict)

	_, err = s.users.Update(s.ctx, ana, "ana", &services.UpdateUserRequest{Email: strPtr("BRUNO@bricolage.pt")})
	s.requireKind(err, utils.KindConflict)

	_, err = s.users.Update(s.ctx, ana, "ana", &services.UpdateUserRequest{
		Role: &services.RoleRequest{Nome: "administrador", Scopes: []string{models.ScopeAdministrador}},
	})
	s.requireKind(err, utils.KindForbidden)

	_, err = s.users.Update(s.ctx, ana, "ana", &services.UpdateUserRequest{Nome: strPtr("")})
	s.requireKind(err, utils.KindValidation)

	result, err := s.users.Update(s.ctx, admin, "ana", &services.UpdateUserRequest{
		Password: strPtr("nova-pass"),
		Role:     &services.RoleRequest{Nome: "gestor", Scopes: []string{models.ScopeGestor}},
	})
	s.Require().NoError(err)
	s.False(result.Reauth)
	s.Equal(models.StringList{models.ScopeGestor}, result.User.Role.Scopes)
	s.NoError(result.User.CheckPassword("nova-pass"))

	result, err = s.users.Update(s.ctx, admin, "ana", &services.UpdateUserRequest{Username: strPtr("ana2")})
	s.Require().NoError(err)
	s.False(result.Reauth, "only renaming yourself forces a new login")
}

func (s *ServiceSuite) TestListUsersIsPaginated() {
	for _, name := range []string{"ana", "bruno", "carla", "duarte"} {
		s.user(name)
	}

	result, err := s.users.List(s.ctx, utils.PaginationParams{Page: 1, Limit: 3, Sort: "username", Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(4), result.Total)
	s.Require().Len(result.Users, 3)
	s.Equal("ana", result.Users[0].Username)

	result, err = s.users.List(s.ctx, utils.PaginationParams{Search: "RL"})
	s.Require().NoError(err)
	s.Require().Len(result.Users, 1)
	s.Equal("carla", result.Users[0].Username)
}

func (s *ServiceSuite) TestDeleteUserKeepsFinalizedVendas() {
	s.product("REF1", "Martelo", 10, 10)
	_, ana := s.user("ana")
	_, bruno := s.user("bruno")

	_, err := s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)
	_, err = s.vendas.Finalize(s.ctx, ana)
	s.Require().NoError(err)
	_, err = s.vendas.AddItems(s.ctx, ana, item("REF1", 1))
	s.Require().NoError(err)
	_, err = s.users.ToggleFavorite(s.ctx, ana, "REF1", true)
	s.Require().NoError(err)

	_, err = s.users.Delete(s.ctx, bruno, "ana")
	s.requireKind(err, utils.KindForbidden)

	_, err = s.users.Delete(s.ctx, ana, "ana")
	s.Require().NoError(err)

	var vendas []models.Venda
	s.Require().NoError(s.db.Find(&vendas).Error)
	s.Require().Len(vendas, 1)
	s.True(vendas[0].IsFinalized())

	var favorites int64
	s.Require().NoError(s.db.Model(&models.Favorite{}).Count(&favorites).Error)
	s.Zero(favorites)
}

func (s *ServiceSuite) TestFavoritesToggleIsIdempotent() {
	s.product("REF1", "Martelo", 10, 3)
	s.product("REF2", "Serrote", 25, -1)
	_, ana := s.user("ana")

	favs, err := s.users.ToggleFavorite(s.ctx, ana, "REF1", true)
	s.Require().NoError(err)
	s.Equal([]string{"REF1"}, favs)

	favs, err = s.users.ToggleFavorite(s.ctx, ana, "REF1", true)
	s.Require().NoError(err)
	s.Equal([]string{"REF1"}, favs)

	_, err = s.users.ToggleFavorite(s.ctx, ana, "NOPE", true)
	s.requireKind(err, utils.KindNotFound)

	_, err = s.users.ToggleFavorite(s.ctx, ana, "REF2", true)
	s.Require().NoError(err)

	products, err := s.users.FavoriteProducts(s.ctx, ana)
	s.Require().NoError(err)
	s.Require().Len(products, 2)
	s.Equal(3, products[0].Stock.Quantidade)
	s.False(products[1].Stock.Associado)

	favs, err = s.users.ToggleFavorite(s.ctx, ana, "REF1", false)
	s.Require().NoError(err)
	s.Equal([]string{"REF2"}, favs)

	favs, err = s.users.ToggleFavorite(s.ctx, ana, "REF1", false)
	s.Require().NoError(err)
	s.Equal([]string{"REF2"}, favs)
}

func (s *ServiceSuite) TestProfilePicture() {
	_, ana := s.user("ana")
	_, bruno := s.user("bruno")

	_, err := s.users.UpdateProfilePicture(s.ctx, bruno, "ana", pngBase64)
	s.requireKind(err, utils.KindForbidden)

	user, err := s.users.UpdateProfilePicture(s.ctx, ana, "ana", pngBase64)
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,"+pngBase64, user.FotoPerfil)
}
