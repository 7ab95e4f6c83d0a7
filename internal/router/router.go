// internal/router/router.go
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/bricolage-backend/internal/config"
	"github.com/javajoker/bricolage-backend/internal/handlers"
	"github.com/javajoker/bricolage-backend/internal/i18n"
	"github.com/javajoker/bricolage-backend/internal/metrics"
	"github.com/javajoker/bricolage-backend/internal/middleware"
	"github.com/javajoker/bricolage-backend/internal/models"
	"github.com/javajoker/bricolage-backend/internal/services"
	"github.com/javajoker/bricolage-backend/internal/utils"
)

const version = "1.0.0"

// Dependencies are the collaborators built outside the router. Nil fields get local defaults.
type Dependencies struct {
	Mailer     services.Mailer
	Locker     services.Locker
	Payments   services.PaymentGateway
	Storage    *services.StorageService
	Metrics    *metrics.Metrics
	RateLimits *middleware.RateLimits
}

func (d *Dependencies) withDefaults(cfg *config.Config) error {
	if d.Mailer == nil {
		d.Mailer = services.LogMailer{}
	}
	if d.Locker == nil {
		d.Locker = services.NewLocalLocker()
	}
	if d.Storage == nil {
		storage, err := services.NewStorageService(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		d.Storage = storage
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.RateLimits == nil {
		d.RateLimits = middleware.NewRateLimits(cfg.RateLimit)
	}
	return nil
}

func Initialize(db *gorm.DB, cfg *config.Config, deps Dependencies) (*gin.Engine, error) {
	if err := i18n.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize i18n: %w", err)
	}
	if err := deps.withDefaults(cfg); err != nil {
		return nil, err
	}

	// Initialize services
	jwt := utils.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL)
	notificationService := services.NewNotificationService(deps.Mailer, cfg)
	catalogCache := services.NewCatalogCache(time.Duration(cfg.Cache.CatalogTTL) * time.Second)

	authService := services.NewAuthService(db, cfg, jwt, deps.Locker, notificationService)
	userService := services.NewUserService(db, deps.Locker, deps.Storage)
	productService := services.NewProductService(db, catalogCache, deps.Locker, deps.Storage)
	stockService := services.NewStockService(db, deps.Locker, deps.Metrics)
	vendaService := services.NewVendaService(db, deps.Locker, deps.Payments, cfg.Payment.Currency, deps.Metrics)
	adminService := services.NewAdminService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, cfg.Cookie, cfg.Frontend)
	userHandler := handlers.NewUserHandler(userService, cfg.Cookie)
	productHandler := handlers.NewProductHandler(productService)
	stockHandler := handlers.NewStockHandler(stockService)
	vendaHandler := handlers.NewVendaHandler(vendaService)
	adminHandler := handlers.NewAdminHandler(adminService)

	authn := middleware.NewAuthenticator(jwt, cfg.Cookie.Name)
	staffOnly := authn.Authorize(models.ScopeAdministrador, models.ScopeGestor)
	adminOnly := authn.Authorize(models.ScopeAdministrador)
	limits := deps.RateLimits

	// Initialize Gin router
	r := gin.New()
	r.SetHTMLTemplate(handlers.Templates())

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(limits.General())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{"status": "healthy", "version": version}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "unhealthy"
		}
		c.JSON(status, body)
	})
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	// Authentication routes
	auth := r.Group("/auth")
	auth.Use(limits.Auth())
	{
		auth.POST("/register", authn.Optional(), authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authn.Required(), authHandler.Logout)
		auth.GET("/me", authn.Required(), authHandler.GetProfile)
		auth.GET("/verify-email", authHandler.VerifyEmail)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	menu := r.Group("/menu")

	// Catalog routes
	produtos := menu.Group("/produtos")
	{
		produtos.GET("", authn.Optional(), productHandler.GetProducts)
		produtos.GET("/:referencia", productHandler.GetProduct)
		produtos.GET("/imagem/:referencia", productHandler.GetImage)

		protected := produtos.Group("")
		protected.Use(authn.Required(), staffOnly)
		{
			protected.POST("", productHandler.CreateProduct)
			protected.PUT("/:referencia", productHandler.UpdateProduct)
			protected.DELETE("/:referencia", productHandler.DeleteProduct)
			protected.PUT("/:referencia/imagem", limits.Upload(), productHandler.UpdateImage)
		}
	}
	menu.GET("/produto/preco-maximo", productHandler.GetMaxPrice)

	// Stock routes
	stocks := menu.Group("/stocks")
	{
		stocks.GET("/:referencia", stockHandler.GetStock)

		protected := stocks.Group("")
		protected.Use(authn.Required(), staffOnly)
		{
			protected.GET("", stockHandler.ListStocks)
			protected.POST("", stockHandler.ApplyMovement)
			protected.PUT("/:referencia", stockHandler.SetQuantity)
			protected.GET("/:referencia/movimentos", stockHandler.ListMovements)
		}
	}

	// Cart and checkout routes
	venda := menu.Group("/venda")
	venda.Use(authn.Required())
	{
		venda.GET("/me", vendaHandler.GetCart)
		venda.POST("/me", vendaHandler.AddItems)
		venda.PUT("/me", vendaHandler.MergeCart)
		venda.DELETE("/me", vendaHandler.ClearCart)
		venda.PUT("/me/produtos/:referencia", vendaHandler.SetItemQuantity)
		venda.DELETE("/me/produtos/:referencia", vendaHandler.RemoveItem)
		venda.GET("/finalizar", vendaHandler.ListFinalized)
		venda.POST("/finalizar", vendaHandler.Finalize)
	}

	vendas := menu.Group("/vendas")
	vendas.Use(authn.Required())
	{
		vendas.GET("", staffOnly, vendaHandler.AdminList)
		vendas.GET("/:nrVenda", vendaHandler.GetVenda)
		vendas.DELETE("/:nrVenda", vendaHandler.DeleteVenda)
	}

	// User routes
	utilizadores := menu.Group("/utilizadores")
	utilizadores.Use(authn.Required())
	{
		utilizadores.GET("", adminOnly, userHandler.ListUsers)
		utilizadores.GET("/:username", userHandler.GetUser)
		utilizadores.PUT("/:username", userHandler.UpdateUser)
		utilizadores.DELETE("/:username", userHandler.DeleteUser)
	}

	utilizador := menu.Group("/utilizador")
	utilizador.Use(authn.Required())
	{
		utilizador.GET("/me", userHandler.GetMe)
		utilizador.GET("/favoritos", userHandler.ListFavorites)
		utilizador.PUT("/favoritos", userHandler.ToggleFavorite)
		utilizador.GET("/filtrarfavoritos", userHandler.FavoriteProducts)
		utilizador.PUT("/:username/profile-picture", limits.Upload(), userHandler.UpdateProfilePicture)
	}

	// Back office routes
	backOffice := menu.Group("")
	backOffice.Use(authn.Required(), adminOnly)
	{
		backOffice.GET("/dashboard", adminHandler.GetDashboardStats)
		backOffice.GET("/auditoria", adminHandler.GetAuditLogs)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", http.StatusText(http.StatusNotFound), nil)
	})

	return r, nil
}
