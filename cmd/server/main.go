package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lextrack/lextrack/internal/config"
	"github.com/lextrack/lextrack/internal/db"
	"github.com/lextrack/lextrack/internal/httpapi"
	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/logging"
	"github.com/lextrack/lextrack/internal/notify"
	"github.com/lextrack/lextrack/internal/settings"
	"github.com/lextrack/lextrack/internal/store/rabbitmq"
	"github.com/lextrack/lextrack/internal/vault"
)

func main() {
	cfg := config.Load()
	log := logging.Init()
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalw("db connect failed", "error", err)
	}

	store := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer store.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		cancelPing()
		log.Fatalw("redis connect failed", "addr", cfg.RedisAddr, "error", err)
	}
	cancelPing()

	reg := legalai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context) (legalai.Provider, error) {
		return legalai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiFlashModel, cfg.ChatHistoryLimit), nil
	})
	provider, err := reg.Get(context.Background(), "gemini")
	if err != nil {
		log.Fatalw("ai provider init failed", "error", err)
	}
	ai := legalai.NewService(provider)

	// Queued analysis degrades to the synchronous path when the broker is
	// down, so a missing publisher is not fatal.
	rabbit, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
	if err != nil {
		log.Warnw("rabbitmq unavailable, queued analysis disabled", "error", err)
		rabbit = nil
	} else {
		defer rabbit.Close()
	}

	sched := notify.NewScheduler(gdb, vault.New(store), settings.NewStore(store), cfg.ReminderInterval, time.Local)
	sched.Start()
	defer sched.Stop()

	router := httpapi.NewRouter(gdb, cfg, store, ai, rabbit)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infow("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown failed", "error", err)
	}
}
