package handlers

import (
	"github.com/SscSPs/supply_chain_app/cmd/docs"
	portssvc "github.com/SscSPs/supply_chain_app/internal/core/ports/services"
	"github.com/SscSPs/supply_chain_app/internal/middleware"
	"github.com/SscSPs/supply_chain_app/internal/platform/config"
	"github.com/SscSPs/supply_chain_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
	posthogClient *utils.PosthogClientWrapper,
) {
	r.GET("/health", getHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services, rateLimiter, posthogClient)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

const (
	apiV1Path = "/api/v1"
	// adminPath is the only prefix on which the service key is honoured.
	adminPath = apiV1Path + "/admin"
)

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
	posthogClient *utils.PosthogClientWrapper,
) {
	v1 := r.Group(apiV1Path,
		middleware.ServiceKeyAuth(cfg.ServiceAPIKey, adminPath),
		middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer),
		middleware.RateLimit(rateLimiter),
		middleware.PosthogMiddleware(posthogClient),
	)

	RegisterChainRoutes(v1, services.Chain, services.Traceability)
	RegisterArtifactRoutes(v1, services.Artifact)

	admin := v1.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	RegisterAdminArtifactRoutes(admin, services.Artifact)
	// Seasons live in the SQL store only.
	if services.Season != nil {
		RegisterSeasonRoutes(admin, services.Season, cfg.SeasonBackfillBatchSize)
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
