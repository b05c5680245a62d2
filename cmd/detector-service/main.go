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

	"github.com/artscout-ai/artscout/pkg/analysis"
	"github.com/artscout-ai/artscout/pkg/blobstore"
	"github.com/artscout-ai/artscout/pkg/common/config"
	"github.com/artscout-ai/artscout/pkg/common/database"
	"github.com/artscout-ai/artscout/pkg/common/kafka"
	"github.com/artscout-ai/artscout/pkg/common/logger"
	"github.com/artscout-ai/artscout/pkg/common/middleware"
	"github.com/artscout-ai/artscout/pkg/common/models"
	"github.com/artscout-ai/artscout/pkg/delivery"
	"github.com/artscout-ai/artscout/pkg/ledger"
	"github.com/artscout-ai/artscout/pkg/reddit"
	"github.com/artscout-ai/artscout/pkg/runlog"
	"github.com/artscout-ai/artscout/pkg/scanner"
	"github.com/gorilla/mux"
)

type scanResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Counts     models.ScanResult `json:"counts"`
}

type app struct {
	scanner interface {
		Run(ctx context.Context) models.ScanResult
	}
	runs *runlog.Repository
	mode string

	mu sync.Mutex
}

func main() {
	logger.Init()
	cfg := config.Load()

	creds := reddit.Credentials{
		Username:     cfg.RedditUsername,
		Password:     cfg.RedditPassword,
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		BaseURL:      cfg.RedditBaseURL,
		TokenURL:     cfg.RedditTokenURL,
	}

	redditClient, err := reddit.NewClient(creds)
	if err != nil {
		logger.Log.WithError(err).Fatal("invalid reddit configuration")
	}
	if cfg.LLMAPIKey == "" {
		logger.Log.Fatal("LLM_API_KEY is required")
	}

	profile, err := analysis.LoadProfile(cfg.StyleProfilePath)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load style profile")
	}

	llm := analysis.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModelName)
	classifier := analysis.NewClassifier(llm, profile)
	generator := analysis.NewGenerator(llm, profile)

	blobs := blobstore.NewRedisStore(database.GetRedis())
	store := ledger.NewStore(blobs, cfg.LedgerBlobKey, cfg.SuccessLogKey)

	var strategy delivery.Strategy
	switch cfg.DeliveryMode {
	case "direct":
		strategy = delivery.NewDirectReply(generator, redditClient)
	default:
		if cfg.DeliveryTopic != "" {
			producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.DeliveryTopic)
			defer producer.Close()
			strategy = delivery.NewDeferredEnqueue(generator, producer)
		} else {
			strategy = delivery.NewDeferredEnqueue(generator, nil)
		}
	}

	a := &app{
		scanner: scanner.New(redditClient, classifier, strategy, store, cfg.Subreddits, cfg.PostScanLimit),
		mode:    strategy.Name(),
	}

	if cfg.RunHistoryEnabled {
		db, err := database.GetPostgres()
		if err != nil {
			logger.Log.WithError(err).Fatal("failed to connect to postgres")
		}
		repo := runlog.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("failed to migrate run history tables")
		}
		a.runs = repo
	}

	if name, err := redditClient.Me(context.Background()); err != nil {
		logger.Log.WithError(err).Warn("could not verify reddit credentials at startup")
	} else {
		logger.Log.WithField("account", name).Info("Authenticated to reddit")
	}

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

	router.HandleFunc("/api/v1/scan", a.handleScan).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/runs", a.handleRuns).Methods(http.MethodGet)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
			"mode": a.mode,
		}).Info("Detector Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("failed to start server")
		}
	}()

	if cfg.ScanInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ScanInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					resp := a.runOnce(context.Background())
					logger.Log.WithFields(map[string]interface{}{
						"status":  resp.StatusCode,
						"message": resp.Message,
					}).Info("Scheduled scan finished")
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Detector Service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("server forced to shutdown")
	}

	logger.Log.Info("Detector Service stopped")
}

func (a *app) handleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if a.runs == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "run history is not enabled"})
		return
	}

	runs, err := a.runs.RecentRuns(r.Context(), 20)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to list recent runs")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "failed to list runs"})
		return
	}

	json.NewEncoder(w).Encode(runs)
}

func (a *app) handleScan(w http.ResponseWriter, r *http.Request) {
	resp := a.runOnce(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	json.NewEncoder(w).Encode(resp)
}

// runOnce executes one scanner invocation. Any panic is converted into a
// 500-equivalent structured result instead of propagating. The mutex
// keeps the ticker and manual triggers from overlapping within this
// process; the schedule must still guarantee a single running instance.
func (a *app) runOnce(ctx context.Context) (resp scanResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("Scan invocation panicked")
			resp = scanResponse{
				StatusCode: http.StatusInternalServerError,
				Message:    fmt.Sprintf("Error: %v", r),
			}
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	started := time.Now()
	result := a.scanner.Run(ctx)

	if a.runs != nil {
		if err := a.runs.RecordRun(ctx, a.mode, started, result); err != nil {
			logger.Log.WithError(err).Error("Failed to record run history")
		}
	}

	return scanResponse{
		StatusCode: http.StatusOK,
		Message:    "scan completed",
		Counts:     result,
	}
}
