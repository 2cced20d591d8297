// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes tracing, correlation IDs,
// logging, panic recovery, metrics, rate limiting, CORS, security headers,
// and session auth.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: panics to JSON 500 (with request id)
//  5. Body size limiter
//  6. Metrics
//  7. CORS, security headers, gzip
//
// The rate limiter is installed per route group rather than globally: on the
// sign-in endpoints it runs before auth and keys by client IP, on the API and
// admin groups it runs after RequireAuth so buckets key by user id.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/harrmos/quran-api/internal/auth"
	"github.com/harrmos/quran-api/internal/config"
	"github.com/harrmos/quran-api/internal/http/handlers"
	"github.com/harrmos/quran-api/internal/http/middleware"
	"github.com/harrmos/quran-api/internal/llm"
	"github.com/harrmos/quran-api/internal/services"
)

// RegisterRoutes attaches all middleware and endpoints to the Gin engine.
// All dependencies are built here from the database handle and the loaded
// configuration.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())

	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))
	}

	// Dependency injection: services ← repo/db/config
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenLifetime)
	google := auth.NewGoogleVerifier(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL)
	completer := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model,
		cfg.OpenAI.Temperature, cfg.OpenAI.MaxTokens, cfg.OpenAI.Timeout)

	userSvc := services.NewUserService(db, cfg.AdminEmail, cfg.DefaultQuota)
	convSvc := services.NewConversationService(db)
	chatSvc := services.NewChatService(db, userSvc, completer, cfg.ContextWindow, cfg.MaxMessageLen)
	trackSvc := services.NewTrackingService(db)
	adminSvc := services.NewAdminService(db, userSvc)

	authH := handlers.NewAuthHandlers(google, userSvc, issuer, cfg.FrontendURL)
	chatH := handlers.NewChatHandlers(chatSvc, userSvc)
	convH := handlers.NewConversationHandlers(convSvc)
	trackH := handlers.NewTrackingHandlers(trackSvc)
	adminH := handlers.NewAdminHandlers(adminSvc)

	// Sign-in endpoints, no session required: buckets key by client IP
	authGrp := r.Group("/auth")
	authGrp.Use(rl.Handler())
	{
		authGrp.GET("/google", authH.GoogleRedirect)
		authGrp.GET("/google/callback", authH.GoogleCallback)
		authGrp.POST("/google/mobile", authH.MobileSignIn)
		authGrp.GET("/status", authH.Status)
		authGrp.GET("/logout", authH.Logout)
	}

	// Authenticated API: limiter runs after auth so buckets key by user id
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RequireAuth(issuer), rl.Handler())
	{
		api.GET("/me", authH.Me)
		api.PUT("/me/preferences", authH.UpdatePreferences)

		api.POST("/chat", chatH.Chat)
		api.GET("/chat/quota", chatH.Quota)

		api.POST("/conversations", convH.CreateConversation)
		api.GET("/conversations", convH.ListConversations)
		api.GET("/conversations/:id", convH.GetConversation)
		api.PUT("/conversations/:id", convH.RenameConversation)
		api.POST("/conversations/:id/archive", convH.ArchiveConversation)
		api.DELETE("/conversations/:id", convH.DeleteConversation)
		api.GET("/conversations/:id/messages", convH.ListMessages)

		api.PUT("/tracking/progress", trackH.SaveProgress)
		api.GET("/tracking/progress", trackH.Progress)
		api.POST("/tracking/history", trackH.AddHistory)
		api.GET("/tracking/history", trackH.History)
		api.POST("/tracking/favorites", trackH.AddFavorite)
		api.GET("/tracking/favorites", trackH.Favorites)
		api.DELETE("/tracking/favorites/:id", trackH.RemoveFavorite)
		api.POST("/tracking/goals", trackH.CreateGoal)
		api.GET("/tracking/goals", trackH.Goals)
		api.PUT("/tracking/goals/:id", trackH.UpdateGoal)
		api.POST("/tracking/sessions", trackH.StartSession)
		api.POST("/tracking/sessions/:id/end", trackH.EndSession)
		api.POST("/tracking/stats", trackH.RecordStats)
		api.GET("/tracking/stats", trackH.AllStats)
		api.GET("/tracking/stats/today", trackH.TodayStats)
		api.GET("/tracking/stats/daily/:days", trackH.DailyStats)
		api.GET("/tracking/stats/week", trackH.WeekStats)
		api.GET("/tracking/stats/totals", trackH.Totals)

		api.GET("/notifications", trackH.Notifications)
		api.POST("/notifications/:id/read", trackH.MarkNotificationRead)
	}

	// Admin API
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(issuer), rl.Handler(), middleware.RequireAdmin())
	{
		admin.GET("/stats/global", adminH.GlobalStats)
		admin.GET("/stats/users", adminH.UserStats)
		admin.POST("/users/:id/quota/reset", adminH.ResetQuota)
	}
}

// limitBody caps the request body size for all endpoints.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
