package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/patrickrooney09/tiba-update-user/internal/audit"
	"github.com/patrickrooney09/tiba-update-user/internal/auth"
	"github.com/patrickrooney09/tiba-update-user/internal/config"
	"github.com/patrickrooney09/tiba-update-user/internal/monthly"
	"github.com/patrickrooney09/tiba-update-user/internal/user"
)

type Server struct {
	router *gin.Engine
	config *config.Config
	http   *http.Server
}

// Deps carries the constructed services the router wires up. Everything is
// injected so tests can stand up the full route table against doubles.
type Deps struct {
	Users   user.Service
	Monthly monthly.Service
	Audits  audit.Store
	Revoked *auth.RevocationStore
}

func New(cfg *config.Config, deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())

	userHandler := user.NewHandler(deps.Users)
	monthlyHandler := monthly.NewHandler(deps.Monthly)
	auditHandler := audit.NewHandler(deps.Audits)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret, deps.Revoked)

	public := router.Group("/auth")
	public.Use(RateLimitMiddleware(5, 10))
	{
		public.POST("/login", userHandler.Login)
		public.POST("/refresh", userHandler.RefreshToken)
	}
	router.POST("/auth/logout", authMiddleware, userHandler.Logout)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.GetMe)

		sp := protected.Group("/api/smartpark")
		sp.GET("/access-profiles", monthlyHandler.ListAccessProfiles)
		sp.POST("/monthly-details", monthlyHandler.GetDetails)
		sp.PUT("/update-monthly", monthlyHandler.Update)
		sp.POST("/monthly/discount", monthlyHandler.ApplyDiscount)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(user.RoleAdmin))
	{
		admin.POST("/users", userHandler.Register)
		admin.GET("/audit-logs", auditHandler.List)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())
	SetupSwagger(router)

	return &Server{
		router: router,
		config: cfg,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the engine for httptest servers.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
