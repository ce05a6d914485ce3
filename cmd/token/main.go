// Command token mints an API bearer token for an existing user.
//
//	token -user 3 -ttl 720h
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"mlboard/auth"
	"mlboard/config"
	"mlboard/models"
)

func main() {
	configPath := flag.String("config", "", "path to the yaml config file")
	userID := flag.Uint("user", 0, "id of the user the token authenticates")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if *userID == 0 {
		log.Fatal().Msg("-user is required")
	}

	models.ConnectDatabase(cfg.Database)
	var user models.User
	if err := models.DB.First(&user, *userID).Error; err != nil {
		log.Fatal().Err(err).Uint("user", *userID).Msg("user not found")
	}

	token, err := auth.NewToken([]byte(cfg.Auth.JWTSecret), user.ID, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	fmt.Println(token)
}
