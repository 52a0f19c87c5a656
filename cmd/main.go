package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Dosada05/matchday/config"
	"github.com/Dosada05/matchday/engine"
	"github.com/Dosada05/matchday/handlers"
	"github.com/Dosada05/matchday/realtime"
	api "github.com/Dosada05/matchday/routes"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/session"
	"github.com/Dosada05/matchday/storage"
)

const shutdownTimeout = 15 * time.Second

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.WithError(err).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := newLogger(cfg.Log)
	logger.WithFields(logrus.Fields{
		"port":    cfg.Server.Port,
		"driver":  cfg.Database.Driver,
		"workers": cfg.Simulation.Workers,
	}).Info("Configuration loaded")

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var archive storage.FileUploader
	if cfg.Archive.Enabled() {
		archive, err = storage.NewS3Archive(rootCtx, storage.S3Config{
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
			Bucket:          cfg.Archive.Bucket,
			PublicBaseURL:   cfg.Archive.PublicBaseURL,
			Prefix:          cfg.Archive.Prefix,
			UsePathStyle:    cfg.Archive.UsePathStyle,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize season archive")
		}
		logger.WithField("bucket", cfg.Archive.Bucket).Info("Season archive enabled")
	}

	wsHub := realtime.NewHub(logger)
	go wsHub.Run(rootCtx)
	logger.Info("WebSocket hub started")

	league, cup, combination, err := cfg.Finance.Prizes()
	if err != nil {
		logger.WithError(err).Fatal("Invalid prize configuration")
	}
	engineCfg := engine.DefaultConfig()
	engineCfg.MOTMCount = cfg.Simulation.MOTMCount

	manager := session.NewManager(session.Options{
		Driver:       cfg.Database.Driver,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Engine:       engineCfg,
		Simulation: services.SimulationConfig{
			Workers:      cfg.Simulation.Workers,
			MatchTimeout: cfg.Simulation.MatchTimeout,
		},
		Awards:              services.AwardsConfig{MinMatches: cfg.Awards.MinMatches},
		Finance:             services.FinanceConfig{PrizeLeague: league, PrizeCup: cup, PrizeCombination: combination},
		Seed:                cfg.Simulation.Seed,
		AutoAdvanceInterval: cfg.Simulation.AutoAdvanceInterval,
		Archive:             archive,
		Notifier:            wsHub,
	}, logger)
	defer func() {
		if err := manager.Close(); err != nil {
			logger.WithError(err).Error("Failed to close save")
		}
	}()

	if cfg.Server.SavePath != "" {
		if _, err := manager.Load(rootCtx, cfg.Server.SavePath, uuid.Nil); err != nil {
			logger.WithError(err).WithField("path", cfg.Server.SavePath).Fatal("Failed to load save")
		}
	}

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		logger,
		handlers.NewSaveHandler(manager),
		handlers.NewGameHandler(manager),
		handlers.NewWebSocketHandler(wsHub, manager),
	)
	logger.Info("Routes configured")

	errorLog := logger.WriterLevel(logrus.ErrorLevel)
	defer errorLog.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
		// Season transitions of a big world can take a while.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     log.New(errorLog, "", 0),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("address", server.Addr).Info("Starting server")
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server error")
			return
		}
		logger.Info("Server stopped")
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Graceful shutdown failed")
			if closeErr := server.Close(); closeErr != nil {
				logger.WithError(closeErr).Error("Failed to force close server")
			}
		} else {
			logger.Info("Server shutdown complete")
		}
	}
	logger.Info("Application exited")
}
