package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/phuslu/log"

	"github.com/julianjca/op-portfolio-tracker/internal/api"
	"github.com/julianjca/op-portfolio-tracker/internal/config"
	"github.com/julianjca/op-portfolio-tracker/internal/database"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	config.SetupLogging(cfg.Logging)

	// Initialize database
	db, err := database.Open(cfg.Database.Path, config.GormLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	syncService := services.NewSyncServiceFromConfig(cfg, db)
	if !syncService.PriceSourceConfigured() {
		log.Warn().Msg("PRICECHARTING_API_KEY not set, slab price sync will be rejected")
	}

	// Optional in-process schedule
	var scheduler *services.Scheduler
	if cfg.Schedule.Enabled {
		scheduler = services.NewScheduler(syncService)
		for kind, spec := range map[models.SyncKind]string{
			models.SyncKindSets:       cfg.Schedule.Sets,
			models.SyncKindCards:      cfg.Schedule.Cards,
			models.SyncKindSlabPrices: cfg.Schedule.SlabPrices,
			models.SyncKindSetValues:  cfg.Schedule.SetValues,
		} {
			if err := scheduler.Add(kind, spec); err != nil {
				log.Fatal().Err(err).Msg("Failed to schedule sync job")
			}
		}
		scheduler.Start()
	}

	// Setup router
	gin.SetMode(gin.ReleaseMode)
	router := api.SetupRouter(cfg.Server.CORSAllowedOrigins, db, syncService)

	// Create HTTP server for graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	log.Info().Msg("Server exited")
}
