package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/brain"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/config"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/db"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/store/rabbitmq"
	"github.com/anshumankush-jpg/legal-bot-production-level-sub000/internal/upload"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}

	var ingestor brain.Ingestor
	{
		p := brain.NewRESTProvider(cfg.BrainBaseURL, cfg.BrainAPIKey)
		ing, ok := any(p).(brain.Ingestor)
		if !ok {
			logger.Fatal("provider does not support document ingest",
				zap.String("provider", cfg.BrainProvider))
		}
		ingestor = ing
	}

	svc := upload.NewService(upload.NewRepo(gdb), nil, cfg.UploadDir, logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logger.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	// Same topology as the publisher; mismatched args would close the
	// channel with PRECONDITION_FAILED.
	if err := rabbitmq.DeclareTopology(ch, cfg.RabbitQueue); err != nil {
		logger.Fatal("queue declare", zap.Error(err))
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		logger.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", concurrency))

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					logger.Warn("bad message",
						zap.Int("worker", workerID),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := svc.Process(ctx, m.JobID, ingestor); err != nil {
					logger.Error("ingest job failed",
						zap.Int("worker", workerID),
						zap.String("job_id", m.JobID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					logger.Error("ack failed",
						zap.Int("worker", workerID),
						zap.String("job_id", m.JobID),
						zap.Error(err))
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
