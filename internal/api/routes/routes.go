package routes

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"cms-panel/internal/api/handlers"
	"cms-panel/internal/api/middleware"
	"cms-panel/internal/config"
	"cms-panel/internal/models"
	"cms-panel/internal/services"
)

// NewEngine builds the HTTP engine with the full middleware chain and all routes.
func NewEngine(cfg *config.Config, gw *models.Gateway, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.RedirectTrailingSlash = false
	// The serverless edge overwrites X-Real-IP; elsewhere the peer address is the client.
	if cfg.Server.Serverless {
		r.TrustedPlatform = "X-Real-IP"
	} else {
		_ = r.SetTrustedProxies(nil)
	}

	SetupRoutes(r, cfg, gw, logger)
	return r
}

func SetupRoutes(r *gin.Engine, cfg *config.Config, gw *models.Gateway, logger *slog.Logger) {
	dev := cfg.IsDevelopment()

	// Initialize services
	authService := services.NewAuthService(gw, cfg)
	auditService := services.NewAuditService(gw, logger)
	userService := services.NewUserService(gw, authService)
	postService := services.NewPostService(gw)
	pageService := services.NewPageService(gw)
	mediaService := services.NewMediaService(gw, cfg.Uploads, logger)
	clientService := services.NewClientService(gw)
	settingService := services.NewSettingService(gw)
	dashboardService := services.NewDashboardService(gw)

	gw.OnInit(authService.CreateDefaultUser)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(gw)
	authHandler := handlers.NewAuthHandler(authService, auditService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	postHandler := handlers.NewPostHandler(postService, auditService)
	pageHandler := handlers.NewPageHandler(pageService, auditService)
	mediaHandler := handlers.NewMediaHandler(mediaService, auditService, cfg.Uploads.MaxSize)
	clientHandler := handlers.NewClientHandler(clientService, auditService)
	settingHandler := handlers.NewSettingHandler(settingService, auditService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Middleware
	r.Use(middleware.SecurityHeaders(dev))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger, dev))
	r.Use(middleware.ErrorHandler(logger, dev))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout,
		"POST /api/media/upload",
		"POST /api/media",
	))

	editors := []string{models.RoleAdmin, models.RoleEditor}

	// Public routes
	api := r.Group("/api")
	api.GET("/health", healthHandler.Health)

	data := api.Group("")
	if cfg.Server.Serverless {
		data.Use(middleware.EnsureDatabase(gw, logger))
	}

	// Auth routes (public)
	login := data.Group("/auth")
	if cfg.Security.RateLimit.Enabled {
		login.Use(middleware.NewRateLimiter(cfg.Security.RateLimit.RequestsPerMinute).Middleware())
	}
	login.POST("/login", authHandler.Login)

	// Protected routes
	protected := data.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	{
		// Auth routes (protected)
		protected.GET("/auth/me", authHandler.GetMe)
		protected.POST("/auth/logout", authHandler.Logout)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		protected.GET("/dashboard", dashboardHandler.GetStats)
		protected.GET("/dashboard/stats", dashboardHandler.GetStats)

		// Users
		users := protected.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/:id", userHandler.GetUser)
			users.PUT("/:id", userHandler.UpdateUser)

			admin := users.Group("", middleware.RequireRole(models.RoleAdmin))
			admin.POST("", userHandler.CreateUser)
			admin.POST("/:id/password", userHandler.UpdatePassword)
			admin.DELETE("/:id", userHandler.DeleteUser)
		}

		// Blog posts
		blog := protected.Group("/blog")
		{
			blog.GET("", postHandler.GetPosts)
			blog.GET("/:id", postHandler.GetPost)

			write := blog.Group("", middleware.RequireRole(editors...))
			write.POST("", postHandler.CreatePost)
			write.PUT("/:id", postHandler.UpdatePost)
			write.DELETE("/:id", postHandler.DeletePost)
		}

		// Pages
		pages := protected.Group("/pages")
		{
			pages.GET("", pageHandler.GetPages)
			pages.GET("/:id", pageHandler.GetPage)

			write := pages.Group("", middleware.RequireRole(editors...))
			write.POST("", pageHandler.CreatePage)
			write.PUT("/:id", pageHandler.UpdatePage)
			write.DELETE("/:id", pageHandler.DeletePage)
		}

		// Media
		media := protected.Group("/media")
		{
			media.GET("", mediaHandler.GetMedia)
			media.GET("/:id", mediaHandler.GetMediaAsset)

			write := media.Group("", middleware.RequireRole(editors...))
			write.POST("", mediaHandler.UploadMedia)
			write.POST("/upload", mediaHandler.UploadMedia)
			write.DELETE("/:id", mediaHandler.DeleteMedia)
		}

		// Clients
		clients := protected.Group("/clients")
		{
			clients.GET("", clientHandler.GetClients)
			clients.GET("/:id", clientHandler.GetClient)

			write := clients.Group("", middleware.RequireRole(editors...))
			write.POST("", clientHandler.CreateClient)
			write.PUT("/:id", clientHandler.UpdateClient)
			write.DELETE("/:id", clientHandler.DeleteClient)
		}

		// Settings
		protected.GET("/settings", settingHandler.GetSettings)
		protected.PUT("/settings", middleware.RequireRole(models.RoleAdmin), settingHandler.UpdateSettings)

		// Audit log
		protected.GET("/audit", middleware.RequireRole(models.RoleAdmin), auditHandler.GetLogs)
	}

	// Uploaded media
	if cfg.Uploads.URLPrefix != "" {
		r.Static(cfg.Uploads.URLPrefix, cfg.Uploads.Dir)
	}

	setupFrontend(r, cfg.Server.FrontendDir)
}

// setupFrontend serves the admin client bundle and falls back to index.html
// for client-side routes. Unknown /api paths get a JSON 404.
func setupFrontend(r *gin.Engine, frontendDir string) {
	index := filepath.Join(frontendDir, "index.html")
	hasFrontend := false
	if _, err := os.Stat(index); err == nil {
		hasFrontend = true
		r.Static("/assets", filepath.Join(frontendDir, "assets"))
		r.StaticFile("/favicon.ico", filepath.Join(frontendDir, "favicon.ico"))
	}

	r.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") || !hasFrontend || c.Request.Method != http.MethodGet {
			c.JSON(http.StatusNotFound, middleware.ErrorResponse{Message: "API endpoint not found"})
			return
		}

		// For all other routes, serve index.html (SPA fallback)
		c.File(index)
	})
}
