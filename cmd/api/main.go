package main

import (
	"context"
	"log"
	"time"

	"livepoll/config"
	"livepoll/internal/domain/poll"
	"livepoll/internal/domain/user"
	"livepoll/internal/handler"
	appredis "livepoll/internal/redis"
	"livepoll/internal/repository"
	"livepoll/internal/server"
	"livepoll/internal/services"
	"livepoll/internal/websocket"
	"livepoll/pkg/database"
	"livepoll/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.NewWithRotation(mode, cfg.LogFile)
	logger.SetGlobalLogger(l)

	// Connect to Database
	database.Connect(cfg)
	if err := database.DB.AutoMigrate(
		&user.User{},
		&poll.Poll{},
		&poll.Option{},
		&poll.Vote{},
	); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	appredis.Initialize(appredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	sessions := appredis.NewSessionStore(appredis.GetClient(), time.Duration(cfg.SessionTTLMin)*time.Minute)

	users := repository.NewUserRepository(database.DB)
	polls := repository.NewPollRepository(database.DB)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	authService := services.NewAuthService(users, sessions, cfg.SessionSecret)
	pollService := services.NewPollService(polls, users, hub, l)

	cookieMaxAge := cfg.SessionTTLMin * 60
	handlers := &server.Handlers{
		Auth: handler.NewAuthHandler(authService, cfg.SessionCookie, cookieMaxAge),
		Poll: handler.NewPollHandler(pollService, l),
		WS:   websocket.NewHandler(hub, pollService, l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, sessions.Ping)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
