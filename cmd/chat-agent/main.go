// Package main is the entry point for the chat agent service: an HTTP
// gateway that turns user prompts into grounded, tool-augmented
// answers and structured portfolio reports.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mimurillof/chat-agent-service/internal/agent"
	"github.com/mimurillof/chat-agent-service/internal/cascade"
	"github.com/mimurillof/chat-agent-service/internal/config"
	"github.com/mimurillof/chat-agent-service/internal/logging"
	"github.com/mimurillof/chat-agent-service/internal/provider"
	"github.com/mimurillof/chat-agent-service/internal/recovery"
	"github.com/mimurillof/chat-agent-service/internal/report"
	"github.com/mimurillof/chat-agent-service/internal/routing"
	"github.com/mimurillof/chat-agent-service/internal/scheduler"
	"github.com/mimurillof/chat-agent-service/internal/server"
	"github.com/mimurillof/chat-agent-service/internal/session"
	"github.com/mimurillof/chat-agent-service/internal/storage"
	"github.com/mimurillof/chat-agent-service/internal/task"
	"github.com/mimurillof/chat-agent-service/internal/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat-agent: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "", "config file path")
	flag.Parse()

	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level)

	gateway, err := provider.NewClient(&provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout.Std(),
	}, logging.WithComponent(logger, "provider"))
	if err != nil {
		return err
	}

	selector, err := cascade.NewSelector(gateway, cfg.Models.Cascades, logging.WithComponent(logger, "cascade"))
	if err != nil {
		return err
	}

	var sessions session.Store
	var sessionSweeper scheduler.Sweeper
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		redisStore := session.NewRedisStore(client, cfg.Sessions.IdleTTL.Std())
		sessions, sessionSweeper = redisStore, redisStore
		logger.Info("session store", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		memStore := session.NewMemoryStore(cfg.Sessions.IdleTTL.Std())
		sessions, sessionSweeper = memStore, memStore
		logger.Info("session store", "backend", "memory")
	}

	var objects storage.Store
	if cfg.Storage.Endpoint != "" {
		objects, err = storage.NewMinioStore(cfg.Storage, logging.WithComponent(logger, "storage"))
		if err != nil {
			return err
		}
		logger.Info("object storage connected", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	} else {
		logger.Warn("object storage disabled, reports run without bucket context")
	}

	registry := tools.NewRegistry(tools.CurrentDatetime())
	router := routing.NewRouter(cfg.Models.Fast, cfg.Models.Deep, registry)
	chatAgent := agent.New(selector, router, registry, sessions,
		cfg.Models.Fast, cfg.Models.Deep, cfg.Sessions.HistoryWindow,
		logging.WithComponent(logger, "agent"))

	reports := report.NewService(selector, objects, sessions,
		recovery.ExternalRepairer{},
		cfg.Models.Fast, cfg.Models.Deep,
		logging.WithComponent(logger, "report"))

	tasks := task.NewStore()

	sweeps, err := scheduler.New(sessionSweeper, tasks,
		cfg.Sessions.SweepInterval.Std(), cfg.Tasks.Retention.Std(),
		logging.WithComponent(logger, "scheduler"))
	if err != nil {
		return err
	}
	sweeps.Start()
	defer sweeps.Stop()

	srv := server.New(cfg, chatAgent, reports, sessions, tasks,
		logging.WithComponent(logger, "server"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
