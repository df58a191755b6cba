package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"productprose/backend/internal/config"
	config_http "productprose/backend/internal/features/config/presentation/http"
	"productprose/backend/internal/features/description/application"
	"productprose/backend/internal/features/description/infrastructure"
	description_http "productprose/backend/internal/features/description/presentation/http"
	"productprose/backend/internal/logging"
	"productprose/backend/internal/metrics"
	"productprose/backend/internal/middleware"
)

const reaperSchedule = "@every 10m"

func main() {
	// Load .env file and environment
	settings, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config failed")
	}
	logging.Setup(settings.LogLevel)

	reg := metrics.NewRegistry()
	appConfigService := config.NewAppConfigService(settings.AppConfigPath)
	appConfig, err := appConfigService.LoadAppConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("app config failed")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(reg))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	r.GET("/metrics", reg.GinHandlerText)

	// Config API routes
	configGroup := r.Group("/api/config")
	{
		configGroup.GET("/app", config_http.NewAppConfigHandler(appConfigService).GetAppConfigHandler)
	}

	// The pipeline is only built when the provider credentials are present.
	var handler *description_http.DescriptionHandler
	credErr := settings.CredentialsError()
	if credErr != nil {
		log.Warn().Err(credErr).Str("provider", settings.Provider).Msg("pipeline disabled")
	} else {
		models, err := infrastructure.NewModelFactory(settings.AIConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("model factory init failed")
		}

		store := application.NewMemorySessionStore()
		descriptionService := application.NewDescriptionService(models, store, application.Options{
			Stages:        appConfig.Stages,
			Languages:     appConfig.Languages,
			DefaultTone:   appConfig.DefaultTone,
			DefaultRating: appConfig.DefaultRating,
		}, reg)
		handler = description_http.NewDescriptionHandler(descriptionService)

		reaper := application.NewSessionReaper(store, settings.SessionIdleTTL, reg)
		if err := reaper.Start(reaperSchedule); err != nil {
			log.Fatal().Err(err).Msg("session reaper failed")
		}
		defer reaper.Stop()
	}

	if err := description_http.RegisterRoutes(r, handler, credErr); err != nil {
		log.Fatal().Err(err).Msg("page template failed")
	}

	srv := &http.Server{Addr: settings.Address, Handler: r}
	go func() {
		log.Info().Str("address", settings.Address).Str("provider", settings.Provider).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
