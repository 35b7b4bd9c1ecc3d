package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/ecommerce/backend/internal/infrastructure/auth"
	"github.com/ecommerce/backend/internal/infrastructure/config"
	"github.com/ecommerce/backend/internal/infrastructure/logger"
	"github.com/ecommerce/backend/internal/infrastructure/telemetry"
	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/ecommerce/backend/internal/interfaces/http/handler"
	"github.com/ecommerce/backend/internal/interfaces/http/middleware"
)

// Deps is everything the engine needs. Metrics and MetricsHandler may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist

	// Idempotency backs the Idempotency-Key guard on create routes; nil disables it
	Idempotency middleware.IdempotencyStore

	Metrics        *telemetry.HTTPMetrics
	MetricsHandler http.Handler

	Users         *handler.UserHandler
	Products      *handler.ProductHandler
	Organizations *handler.OrganizationHandler
	System        *handler.SystemHandler
}

// New builds the engine with the full middleware chain and every route
func New(d Deps) (*gin.Engine, error) {
	cfg := d.Config
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(d.Logger),
		logger.Recovery(d.Logger),
		middleware.Metrics(d.Metrics),
	)
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName), middleware.SpanErrorMarker())
	}
	engine.Use(
		middleware.Profiling(cfg.Profiling.Enabled),
		middleware.CORS(cors),
		middleware.Secure(cfg.App.Env == "production"),
		middleware.BodyLimit(cfg.HTTP.MaxBodyBytes),
		middleware.Timeout(cfg.HTTP.RequestTimeout),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	engine.GET("/health", d.System.Health)
	if d.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerAllowlist(cfg.Swagger.AllowedIPs),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authn := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		JWTService:     d.JWT,
		TokenBlacklist: d.Blacklist,
		Logger:         d.Logger,
	})
	once := middleware.Idempotency(d.Idempotency, cfg.HTTP.IdempotencyTTL, d.Logger)
	authLimit := middleware.RateLimit(middleware.NewRateLimiter(cfg.HTTP.AuthRatePerSecond, cfg.HTTP.AuthRateBurst))

	user := NewDomainGroup("user", "/user")
	user.POST("/signup", authLimit, d.Users.Signup)
	user.POST("/login", authLimit, d.Users.Login)
	user.POST("/logout", authn, d.Users.Logout)
	user.GET("/me", authn, middleware.SpanAttributes(), d.Users.Me)

	product := NewDomainGroup("product", "/product")
	product.GET("", d.Products.List)
	product.GET("/:id", d.Products.Get)
	product.GET("/:id/images", d.Products.ListImages)
	product.POST("/create", authn, middleware.SpanAttributes(), once, d.Products.Create)
	product.POST("/:id/images", authn, middleware.SpanAttributes(), once, d.Products.AttachImage)
	product.DELETE("/:id/images/:image_id", authn, middleware.SpanAttributes(), d.Products.RemoveImage)

	org := NewDomainGroup("organization", "/organization")
	org.POST("", authLimit, once, d.Organizations.Create)
	org.GET("/join/:token", d.Organizations.CheckInvite)
	org.POST("/join/:token", authLimit, d.Organizations.Join)
	org.POST("/invites", authn, middleware.SpanAttributes(), once, d.Organizations.Invite)
	org.DELETE("/:id", authn, middleware.SpanAttributes(), d.Organizations.Destroy)

	NewRouter(engine).Register(user).Register(product).Register(org).Setup()
	return engine, nil
}
