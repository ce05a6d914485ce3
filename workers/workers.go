package main

import (
	"flag"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"mlboard/config"
	"mlboard/models"
	"mlboard/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("redis address is required to run workers")
	}

	models.ConnectDatabase(cfg.Database)
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		asynq.Config{
			Concurrency: 10,
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeExperimentCreated, tasks.HandleExperimentCreated)

	if err := srv.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("failed to start workers")
	}
}
