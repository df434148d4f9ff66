package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"LegalScanner/internal/config"
	"LegalScanner/internal/infrastructure/cache"
	"LegalScanner/internal/infrastructure/content"
	"LegalScanner/internal/infrastructure/llm"
	"LegalScanner/internal/infrastructure/ocr"
	"LegalScanner/internal/infrastructure/parser"
	"LegalScanner/internal/infrastructure/scheduler"
	"LegalScanner/internal/infrastructure/storage"
	"LegalScanner/internal/infrastructure/telegram"
	"LegalScanner/internal/infrastructure/validate"
	"LegalScanner/internal/logging"
	"LegalScanner/internal/metrics"
	"LegalScanner/internal/ports"
	"LegalScanner/internal/scanner"
	"LegalScanner/internal/server"
	"LegalScanner/internal/usecase"
)

// Application wires config to adapters, use cases, and lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     storage.Store
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	server    *server.Server
}

// New builds a runnable application instance. A missing or unreachable
// database is a construction error: running without persistence would
// silently lose documents, so the process must fail fast instead.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	registry := scanner.NewRegistry()
	linkScanner := parser.NewLinkScanner(
		&http.Client{Timeout: cfg.Pipeline.FetchTimeout.Std()},
		baseLogger.With("component", "scanner.links"))
	registry.Register(linkScanner)
	registry.Register(parser.NewIBBIScanner(
		&http.Client{Timeout: cfg.Pipeline.FetchTimeout.Std()},
		baseLogger.With("component", "scanner.ibbi")))

	source := parser.NewStrategySource(registry, cfg.Sites, cfg.Pipeline.MaxLinksPerPage,
		baseLogger.With("component", "source"))

	var classifier ports.Classifier
	var modelSource ports.LinkSource
	if cfg.Gemini.APIKey != "" {
		gemini := llm.NewGeminiClient(cfg.Gemini, baseLogger.With("component", "gemini"))
		classifier = gemini
		modelSource = parser.NewModelSource(gemini, linkScanner, cfg.Pipeline.MaxLinksPerPage,
			baseLogger.With("component", "model_source"))
	} else {
		baseLogger.Warn("gemini api key not set, relevance classification disabled")
	}

	var ocrEngine ports.OCREngine
	if cfg.OCR.InferenceURL != "" {
		ocrEngine = ocr.NewClient(cfg.OCR.InferenceURL, cfg.OCR.APIKey)
	}

	extractor := content.NewExtractor(
		&http.Client{Timeout: cfg.Pipeline.ExtractTimeout.Std()},
		ocrEngine,
		baseLogger.With("component", "extractor"))

	validator := validate.NewHeadChecker(
		&http.Client{Timeout: cfg.Pipeline.ValidateTimeout.Std()},
		baseLogger.With("component", "validator"))

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Source:      source,
		ModelSource: modelSource,
		Validator:   validator,
		Extractor:   extractor,
		Classifier:  classifier,
		Repository:  store,
		Cache:       cache.NewMemory(cfg.Pipeline.CacheTTL.Std()),
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	promRegistry := prometheus.NewRegistry()
	metrics.RegisterCollectors(promRegistry)

	srv := server.New(store, pipeline, promRegistry, cfg.Server,
		baseLogger.With("component", "server"))

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(cfg.Scheduler.Interval.Std()), pipeline)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		pipeline:  pipeline,
		scheduler: sched,
		server:    srv,
	}, nil
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Error("store close failed", "error", err)
		}
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.scheduler.Stop(stopCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.server.Stop(stopCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}
