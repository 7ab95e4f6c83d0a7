package services_test

import (
	"strings"
	"time"

	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

func registerRequest(username, email string) *services.RegisterRequest {
	return &services.RegisterRequest{
		Username:       username,
		Password:       "pass123",
		Nome:           "Ana Silva",
		Morada:         "Rua Direita 1, Lisboa",
		Telemovel:      "912345678",
		DataNascimento: "1990-05-17",
		NIF:            "123456789",
		Email:          email,
	}
}

func (s *ServiceSuite) TestRegisterCreatesUnverifiedUserAndSendsVerification() {
	user, err := s.auth.Register(s.ctx, registerRequest("ana", "A@X.com"), nil)
	s.Require().NoError(err)

	s.Equal("a@x.com", user.Email)
	s.False(user.IsVerified)
	s.Len(user.VerificationToken, 64)
	s.Equal(models.DefaultRole(), user.Role)
	s.NoError(user.CheckPassword("pass123"))

	messages := s.mailer.Messages()
	s.Require().Len(messages, 1)
	s.Equal("a@x.com", messages[0].To)
	s.Contains(messages[0].Body, "/auth/verify-email?token="+user.VerificationToken)
}

func (s *ServiceSuite) TestRegisterRejectsDuplicates() {
	_, err := s.auth.Register(s.ctx, registerRequest("ana", "a@x.com"), nil)
	s.Require().NoError(err)

	_, err = s.auth.Register(s.ctx, registerRequest("ana", "other@x.com"), nil)
	s.requireKind(err, utils.KindConflict)

	_, err = s.auth.Register(s.ctx, registerRequest("bruno", "A@x.com"), nil)
	s.requireKind(err, utils.KindConflict)

	var count int64
	s.Require().NoError(s.db.Model(&models.User{}).Count(&count).Error)
	s.Equal(int64(1), count)
}

func (s *ServiceSuite) TestRegisterValidatesFieldsAndScopes() {
	req := registerRequest("ana", "a@x.com")
	req.NIF = ""
	_, err := s.auth.Register(s.ctx, req, nil)
	s.requireKind(err, utils.KindValidation)

	req = registerRequest("ana", "a@x.com")
	req.Role = &services.RoleRequest{Nome: "root", Scopes: []string{"root"}}
	_, err = s.auth.Register(s.ctx, req, nil)
	s.requireKind(err, utils.KindValidation)

	req = registerRequest("ana", "a@x.com")
	req.Role = &services.RoleRequest{Nome: "gestor", Scopes: []string{models.ScopeGestor}}
	_, err = s.auth.Register(s.ctx, req, nil)
	s.requireKind(err, utils.KindForbidden)

	_, admin := s.user("admin", models.ScopeAdministrador)
	user, err := s.auth.Register(s.ctx, req, admin)
	s.Require().NoError(err)
	s.Equal(models.StringList{models.ScopeGestor}, user.Role.Scopes)
}

func (s *ServiceSuite) TestRegisterOnlyRequiresPresentFields() {
	req := registerRequest("ana", "a@x.com")
	req.Password = "pass1"
	req.Telemovel = "91 234"
	req.NIF = "PT12"
	req.DataNascimento = "17/05/90"

	user, err := s.auth.Register(s.ctx, req, nil)
	s.Require().NoError(err)
	s.Equal("PT12", user.NIF)
	s.NoError(user.CheckPassword("pass1"))

	req = registerRequest("bruno", "b@x.com")
	req.Telemovel = ""
	_, err = s.auth.Register(s.ctx, req, nil)
	s.requireKind(err, utils.KindValidation)
}

func (s *ServiceSuite) TestLoginRequiresVerifiedAccount() {
	user, err := s.auth.Register(s.ctx, registerRequest("ana", "a@x.com"), nil)
	s.Require().NoError(err)

	_, err = s.auth.Login(s.ctx, &services.LoginRequest{Username: "ana", Password: "pass123"})
	s.requireKind(err, utils.KindAuth)

	_, err = s.auth.VerifyEmail(s.ctx, user.VerificationToken)
	s.Require().NoError(err)

	_, err = s.auth.VerifyEmail(s.ctx, user.VerificationToken)
	s.requireKind(err, utils.KindNotFound)

	_, err = s.auth.Login(s.ctx, &services.LoginRequest{Username: "ana", Password: "wrong"})
	s.requireKind(err, utils.KindAuth)

	_, err = s.auth.Login(s.ctx, &services.LoginRequest{Username: "nobody", Password: "pass123"})
	s.requireKind(err, utils.KindAuth)

	resp, err := s.auth.Login(s.ctx, &services.LoginRequest{Username: "ana", Password: "pass123"})
	s.Require().NoError(err)
	s.NotEmpty(resp.Token)
	s.Equal([]string{models.ScopeUtilizador}, []string(resp.Scopes))
	s.Equal(24*3600, resp.ExpiresIn)

	claims, err := utils.NewJWTManager(s.cfg.JWT.SecretKey, 24).Validate(resp.Token)
	s.Require().NoError(err)
	s.Equal("ana", claims.Username)
	s.Equal(user.ID.String(), claims.UserID)
}

func (s *ServiceSuite) TestPasswordResetFlow() {
	s.user("ana")

	s.requireKind(s.auth.ForgotPassword(s.ctx, ""), utils.KindValidation)
	s.requireKind(s.auth.ForgotPassword(s.ctx, "nobody@x.com"), utils.KindNotFound)
	s.Require().NoError(s.auth.ForgotPassword(s.ctx, "ANA@bricolage.pt"))

	var user models.User
	s.Require().NoError(s.db.Where("username = ?", "ana").First(&user).Error)
	s.Require().NotEmpty(user.ResetToken)
	s.Require().NotNil(user.ResetTokenExpiresAt)

	messages := s.mailer.Messages()
	s.Require().Len(messages, 1)
	s.True(strings.Contains(messages[0].Body, user.ResetToken))

	err := s.auth.ResetPassword(s.ctx, &services.ResetPasswordRequest{Email: "ana@bricolage.pt", Token: "wrong", NovaPassword: "nova123"})
	s.requireKind(err, utils.KindValidation)

	err = s.auth.ResetPassword(s.ctx, &services.ResetPasswordRequest{Email: "ana@bricolage.pt", Token: user.ResetToken, NovaPassword: "nova123"})
	s.Require().NoError(err)

	_, err = s.auth.Login(s.ctx, &services.LoginRequest{Username: "ana", Password: "nova123"})
	s.NoError(err)

	err = s.auth.ResetPassword(s.ctx, &services.ResetPasswordRequest{Email: "ana@bricolage.pt", Token: user.ResetToken, NovaPassword: "outra123"})
	s.requireKind(err, utils.KindValidation)
}

func (s *ServiceSuite) TestExpiredResetTokenIsRejected() {
	s.user("ana")
	s.Require().NoError(s.auth.ForgotPassword(s.ctx, "ana@bricolage.pt"))

	var user models.User
	s.Require().NoError(s.db.Where("username = ?", "ana").First(&user).Error)
	expired := time.Now().UTC().Add(-time.Minute)
	s.Require().NoError(s.db.Model(&user).Update("reset_token_expires_at", expired).Error)

	err := s.auth.ResetPassword(s.ctx, &services.ResetPasswordRequest{Email: "ana@bricolage.pt", Token: user.ResetToken, NovaPassword: "nova123"})
	s.requireKind(err, utils.KindValidation)
}
