package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/lextrack/lextrack/internal/chat"
	"github.com/lextrack/lextrack/internal/config"
	"github.com/lextrack/lextrack/internal/db"
	"github.com/lextrack/lextrack/internal/kv"
	"github.com/lextrack/lextrack/internal/legalai"
	"github.com/lextrack/lextrack/internal/logging"
	"github.com/lextrack/lextrack/internal/store/rabbitmq"
	"github.com/lextrack/lextrack/internal/vault"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	cfg := config.Load()
	log := logging.Init()
	defer func() { _ = log.Sync() }()

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalw("db connect failed", "error", err)
	}
	repo := chat.NewJobRepo(gdb)

	store := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer store.Close()

	reg := legalai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context) (legalai.Provider, error) {
		return legalai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiFlashModel, cfg.ChatHistoryLimit), nil
	})
	provider, err := reg.Get(context.Background(), "gemini")
	if err != nil {
		log.Fatalw("ai provider init failed", "error", err)
	}
	svc := chat.NewService(vault.New(store), legalai.NewService(provider))

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalw("rabbit dial failed", "error", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalw("rabbit channel failed", "error", err)
	}
	defer ch.Close()

	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		log.Fatalw("queue declare failed", "error", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatalw("qos failed", "error", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalw("consume failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("worker started", "queue", cfg.RabbitQueue, "concurrency", concurrency)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Warnw("bad message", "worker", workerID, "error", err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, svc, repo, m.JobID); err != nil {
					log.Warnw("job failed", "worker", workerID, "job_id", m.JobID, "cost", time.Since(start), "error", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					log.Warnw("ack failed", "worker", workerID, "job_id", m.JobID, "error", err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(time.Second)
				continue
			}
			jobs <- d
		}
	}
}

// handleJob drives one queued analysis to completion. The ownership check in
// AppendAssistantReply covers the stale-job case: a session deleted between
// enqueue and processing fails the job instead of resurrecting the session.
func handleJob(ctx context.Context, svc *chat.Service, repo *chat.JobRepo, jobID string) error {
	_ = repo.MarkRunning(ctx, jobID)

	j, err := repo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	reply, err := svc.AppendAssistantReply(ctx, j.UserID, j.SessionID)
	if err != nil {
		_ = repo.MarkFailed(ctx, jobID, err.Error())
		return err
	}

	return repo.MarkSucceeded(ctx, jobID, reply.ID)
}
