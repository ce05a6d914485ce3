package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mlboard/api"
	"mlboard/config"
	"mlboard/models"
	"mlboard/tasks"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(cfg config.Log) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
		gin.DefaultWriter = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if level > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogger(cfg.Log)

	models.ConnectDatabase(cfg.Database)
	tasks.Configure(cfg.Redis.Addr)

	router, err := api.NewRouter([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("database", cfg.Database.Driver).
			Bool("tasks", tasks.Enabled()).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("app failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
}
