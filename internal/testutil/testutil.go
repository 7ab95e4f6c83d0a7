// internal/testutil/testutil.go
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/database"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
)

const TestPassword = "segredo123"

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.ErrorLevel)
}

// Config returns a configuration for an isolated sqlite database with rate limiting off.
func Config(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			Port:      "0",
			PublicURL: "http://localhost:8080",
		},
		Database: config.DatabaseConfig{
			Driver:   "sqlite",
			Path:     filepath.Join(t.TempDir(), "bricolage.db"),
			LogLevel: "silent",
		},
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 24,
		},
		Cookie: config.CookieConfig{Name: "token"},
		AWS: config.AWSConfig{
			MaxImageBytes: 1 << 20,
		},
		Payment: config.PaymentConfig{Currency: "eur"},
		Email: config.EmailConfig{
			FromEmail: "noreply@bricolage.pt",
			FromName:  "Loja Bricolage",
		},
		I18n:     config.I18nConfig{DefaultLocale: "pt"},
		Frontend: config.FrontendConfig{BaseURL: "http://localhost:3000"},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Log:      config.LogConfig{Level: "error", Format: "text"},
		Cache:    config.CacheConfig{CatalogTTL: 60},
	}
}

// NewDB opens and migrates the sqlite database of cfg, closing it when the test ends.
func NewDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := database.Initialize(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	require.NoError(t, database.RunMigrations(db))
	return db
}

// CreateUser inserts a verified user holding scopes, utilizador when none are given.
func CreateUser(t *testing.T, db *gorm.DB, username string, scopes ...string) *models.User {
	t.Helper()
	if len(scopes) == 0 {
		scopes = []string{models.ScopeUtilizador}
	}
	user := &models.User{
		Username:       username,
		Nome:           username,
		Morada:         "Rua Direita 1",
		Telemovel:      "912345678",
		DataNascimento: "1990-01-01",
		NIF:            "123456789",
		Email:          username + "@bricolage.pt",
		IsVerified:     true,
		Role:           models.Role{Nome: scopes[0], Scopes: models.StringList(scopes)},
	}
	require.NoError(t, user.SetPassword(TestPassword))
	require.NoError(t, db.Create(user).Error)
	return user
}

func ActorFor(user *models.User) *services.Actor {
	return &services.Actor{
		UserID:   user.ID,
		Username: user.Username,
		Scopes:   user.Role.Scopes,
	}
}

func CreateProduct(t *testing.T, db *gorm.DB, ref, nome string, preco float64) *models.Product {
	t.Helper()
	product := &models.Product{
		Referencia: ref,
		Nome:       nome,
		Descricao:  "Descrição de " + nome,
		Preco:      preco,
		Categoria:  "Ferramentas",
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func SetStock(t *testing.T, db *gorm.DB, ref string, quantidade int) {
	t.Helper()
	require.NoError(t, db.Save(&models.Stock{RefProduto: ref, Quantidade: quantidade}).Error)
}

// RecordingMailer keeps every message instead of sending it.
type RecordingMailer struct {
	mu       sync.Mutex
	messages []services.Message
}

func (m *RecordingMailer) Send(_ context.Context, msg services.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *RecordingMailer) Messages() []services.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.Message(nil), m.messages...)
}

// Envelope mirrors utils.APIResponse with raw payloads.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

func MakeRequest(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func Decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// DecodeData unmarshals the data field of the envelope into dest.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) Envelope {
	t.Helper()
	env := Decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, dest))
	return env
}

func BearerHeader(token string) map[string]string {
	return map[string]string{"x-access-token": "Bearer " + token}
}
