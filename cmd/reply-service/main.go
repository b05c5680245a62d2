package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/artscout-ai/artscout/pkg/common/config"
	"github.com/artscout-ai/artscout/pkg/common/kafka"
	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/middleware"
	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/delivery"
	"github.com/artscout-ai/artscout/pkg/reddit"
	"github.com/gorilla/mux"
)

type totals struct {
	mu      sync.Mutex
	batches int
	result  models.BatchResult
}

func (t *totals) add(r models.BatchResult) {
	t.mu.Lock()
	t.batches++
	t.result.SuccessfulReplies += r.SuccessfulReplies
	t.result.FailedReplies += r.FailedReplies
	t.mu.Unlock()
}

func (t *totals) snapshot() map[string]interface{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return map[string]interface{}{
		"batches_processed":  t.batches,
		"successful_replies": t.result.SuccessfulReplies,
		"failed_replies":     t.result.FailedReplies,
	}
}

func main() {
	logger.Init()
	cfg := config.Load()

	if cfg.DeliveryTopic == "" {
		logger.Log.Fatal("DELIVERY_TOPIC is required")
	}

	redditClient, err := reddit.NewClient(reddit.Credentials{
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		BaseURL:      cfg.RedditBaseURL,
		TokenURL:     cfg.RedditTokenURL,
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid reddit configuration")
	}

	// Catch bad credentials before consuming; a consumer that cannot
	// reply would just burn through redeliveries.
	name, err := redditClient.Me(context.Background())
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to authenticate to reddit")
	}
	logger.Log.WithField("account", name).Info("Authenticated to reddit")

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.DeliveryTopic, cfg.KafkaGroupID, cfg.ConsumerBatchSize, cfg.ConsumerBatchWait)
	defer consumer.Close()

	replies := delivery.NewConsumer(redditClient)
	stats := &totals{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := consumer.Consume(ctx, func(ctx context.Context, records []kafka.Record) error {
			batch := make([]delivery.QueueRecord, 0, len(records))
			for _, r := range records {
				batch = append(batch, delivery.QueueRecord{
					MessageID: r.MessageID,
					Body:      r.Body,
					NotBefore: r.NotBefore,
				})
			}
			stats.add(replies.HandleBatch(ctx, batch))
			return nil
		})
		if err != nil && ctx.Err() == nil {
			logger.Log.WithError(err).Error("Consumer loop stopped")
		}
	}()

	router := mux.NewRouter()
	router.Use(middleware.Logging, middleware.Recovery)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)
	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/v1/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(stats.snapshot())
	}).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host":  cfg.ServerHost,
			"port":  cfg.ServerPort,
			"topic": cfg.DeliveryTopic,
		}).Info("Reply Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Reply Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Reply Service stopped")
}
