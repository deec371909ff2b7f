package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/inboxpurge/inboxpurge/api/handlers"
	"github.com/inboxpurge/inboxpurge/api/middleware"
	"github.com/inboxpurge/inboxpurge/internal/repository"
	"github.com/inboxpurge/inboxpurge/internal/tracing"
	"github.com/inboxpurge/inboxpurge/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apikey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-INBOXPURGE-API-KEY",
		ValidAPIKey: apikey,
	})

	api := r.Group("/v1")
	api.Use(apiKeyMiddleware)
	api.Use(middleware.TracingMiddleware())
	{
		runs := api.Group("/runs")
		{
			runs.POST("", handlers.StartRun(s.RunnerService))
			runs.GET("", handlers.ListRuns(s.RunnerService))
			runs.GET("/:id", handlers.GetRun(s.RunnerService))
			runs.POST("/:id/pause", handlers.PauseRun(s.RunnerService))
			runs.POST("/:id/resume", handlers.ResumeRun(s.RunnerService))
			runs.POST("/:id/cancel", handlers.CancelRun(s.RunnerService))
			runs.GET("/:id/actions", handlers.ListRunActions(s.RunnerService))
		}

		rules := api.Group("/rules")
		{
			rules.GET("", handlers.ListRules(s.RetentionEngine))
			rules.POST("", handlers.AddRule(s.RetentionEngine))
			rules.GET("/export", handlers.ExportRules(s.RetentionEngine))
			rules.POST("/import", handlers.ImportRules(s.RetentionEngine))
			rules.POST("/:index/enable", handlers.EnableRule(s.RetentionEngine))
			rules.POST("/:index/disable", handlers.DisableRule(s.RetentionEngine))
			rules.DELETE("/:index", handlers.RemoveRule(s.RetentionEngine))
		}

		whitelist := api.Group("/whitelist")
		{
			whitelist.GET("", handlers.ListWhitelist(repos.WhitelistRepository))
			whitelist.POST("", handlers.AddWhitelistDomain(repos.WhitelistRepository))
			whitelist.DELETE("/:domain", handlers.RemoveWhitelistDomain(repos.WhitelistRepository))
		}

		senders := api.Group("/senders")
		{
			senders.GET("", handlers.ListSenders(repos.SenderRepository))
			senders.GET("/stats", handlers.SenderStats(s.DiscoveryService))
			senders.POST("/discover", handlers.DiscoverSenders(s.DiscoveryService))
		}

		api.GET("/safety/stats", handlers.GuardrailStats(s.GuardrailService))
	}
}
