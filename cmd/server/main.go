// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/imposterhq/imposter/internal/auth"
	"github.com/imposterhq/imposter/internal/broadcast"
	"github.com/imposterhq/imposter/internal/config"
	"github.com/imposterhq/imposter/internal/database"
	"github.com/imposterhq/imposter/internal/engine"
	"github.com/imposterhq/imposter/internal/handlers"
	"github.com/imposterhq/imposter/internal/memstore"
	"github.com/imposterhq/imposter/internal/words"
)

func main() {
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	if cfg.JWTPrivateKeyPath != "" && cfg.JWTPublicKeyPath != "" {
		if err := auth.InitFromPath(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath); err != nil {
			logger.Fatalf("auth keys: %v", err)
		}
	} else {
		auth.Init()
	}

	ctx := context.Background()

	var store handlers.Store
	switch cfg.StoreDriver {
	case "memory":
		store = memstore.New()
		logger.Info("Using in-memory store")
	default:
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatalf("migrate: %v", err)
		}
		store = database.NewStore(pool)
		logger.Info("Using postgres store")
	}

	hub := broadcast.NewHub(logger)
	var bus engine.Broadcaster = hub
	if cfg.RedisAddr != "" {
		rb, err := broadcast.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB, logger)
		if err != nil {
			logger.Fatalf("redis: %v", err)
		}
		defer rb.Close()
		bus = broadcast.Tee{hub, rb}
		logger.Infof("Publishing events to redis at %s", cfg.RedisAddr)
	}

	deck, err := words.NewDeck()
	if err != nil {
		logger.Fatalf("word list: %v", err)
	}

	eng := engine.New(store, bus, deck, logger)
	srv := handlers.NewServer(eng, store, hub, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // websocket streams stay open
	}

	errc := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", server.Addr)
		errc <- server.ListenAndServe()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		logger.Fatalf("server exited: %v", err)
	case sig := <-sigs:
		logger.Infof("terminating: %v", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("shutdown: %v", err)
	}
}
