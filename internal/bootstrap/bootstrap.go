// Package bootstrap wires configuration into a running screening pipeline.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/investor-screening/internal/async"
	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/compliance"
	"github.com/joseph-ayodele/investor-screening/internal/extract"
	"github.com/joseph-ayodele/investor-screening/internal/llm"
	"github.com/joseph-ayodele/investor-screening/internal/llm/gemini"
	"github.com/joseph-ayodele/investor-screening/internal/llm/openai"
	"github.com/joseph-ayodele/investor-screening/internal/pipeline"
	"github.com/joseph-ayodele/investor-screening/internal/server"
)

// App is the fully wired pipeline plus everything that must be closed with it.
type App struct {
	Config       *common.Config
	Logger       *slog.Logger
	Extractor    *extract.Adapter
	Checker      *compliance.Checker
	Orchestrator *pipeline.Orchestrator
	Queue        *async.RunQueue
	Service      *server.ScreeningService

	closers []io.Closer
}

// LLM bundles the two model-backed stages.
type LLM interface {
	llm.StructuredAnalyzer
	llm.NotificationDrafter
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var noopCloser = closerFunc(func() error { return nil })

// NewExtractor builds the extraction adapter for cfg.Engine.
func NewExtractor(cfg common.ExtractConfig, logger *slog.Logger) (*extract.Adapter, error) {
	var engine extract.TextExtractor
	switch strings.ToLower(cfg.Engine) {
	case "", "fitz":
		engine = extract.NewFitzExtractor()
	case "pdftotext":
		engine = extract.NewPopplerExtractor(cfg.Pdftotext, extract.ExecRunner{})
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unsupported EXTRACT_ENGINE %q", cfg.Engine), common.ErrInvalidInput)
	}

	opts := []extract.AdapterOption{
		extract.WithMinChars(cfg.MinChars),
		extract.WithMaxPages(cfg.MaxPages),
		extract.WithLogger(logger),
	}
	if cfg.Inspect {
		opts = append(opts, extract.WithInspector(extract.NewInspector()))
	}
	return extract.NewAdapter(engine, opts...), nil
}

// NewLLM builds the configured provider. The Closer releases its client.
func NewLLM(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (LLM, io.Closer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			ProjectID:        cfg.Gemini.ProjectID,
			Location:         cfg.Gemini.Location,
			Model:            cfg.Gemini.Model,
			DraftTemperature: cfg.DraftTemperature,
			Timeout:          cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
		return c, c, nil
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:           cfg.OpenAI.APIKey,
			BaseURL:          cfg.OpenAI.BaseURL,
			Model:            cfg.OpenAI.Model,
			DraftTemperature: cfg.DraftTemperature,
			Timeout:          cfg.Timeout,
		}, logger)
		return c, noopCloser, nil
	default:
		return nil, nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unsupported LLM_PROVIDER %q", cfg.Provider), common.ErrInvalidInput)
	}
}

// NewChecker opens the watchlist source and wraps it in a Checker.
func NewChecker(ctx context.Context, cfg common.WatchlistConfig, logger *slog.Logger) (*compliance.Checker, io.Closer, error) {
	logger = common.LoggerOr(logger)
	policy, err := compliance.ParsePolicy(cfg.UnavailablePolicy)
	if err != nil {
		return nil, nil, common.NewAppError(common.CodeConfig, err.Error(), common.ErrInvalidInput)
	}
	src, closer, err := compliance.OpenSource(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open watchlist: %w", err)
	}
	logger.Info("bootstrap.watchlist.ready", "source", src.Describe(), "policy", string(policy))
	return compliance.NewChecker(src,
		compliance.WithPolicy(policy),
		compliance.WithTimeout(cfg.Timeout),
		compliance.WithLogger(logger),
	), closer, nil
}

// New validates cfg and wires every stage, the orchestrator, the run queue
// and the service the network surfaces share.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	logger = common.LoggerOr(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	ex, err := NewExtractor(cfg.Extract, logger)
	if err != nil {
		return nil, err
	}
	app.Extractor = ex

	model, closer, err := NewLLM(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, closer)

	checker, closer, err := NewChecker(ctx, cfg.Watchlist, logger)
	if err != nil {
		_ = app.closeAll()
		return nil, err
	}
	app.closers = append(app.closers, closer)
	app.Checker = checker

	app.Orchestrator = pipeline.New(ex, model, checker, model, pipeline.WithLogger(logger))
	app.Queue = async.NewRunQueue(logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
		async.WithProcessTimeout(cfg.Pipeline.RunTimeout),
	)
	app.Service = server.NewScreeningService(app.Orchestrator, app.Queue, logger,
		server.WithMaxUploadBytes(cfg.Server.MaxUploadBytes),
		server.WithSubscriberBuffer(cfg.Pipeline.SubscriberBuffer),
	)

	logger.Info("bootstrap.ready",
		"llm_provider", cfg.LLM.Provider,
		"extract_engine", cfg.Extract.Engine,
		"watchlist", checker.Describe(),
	)
	return app, nil
}

// Close drains the run queue, then releases clients and pools.
func (a *App) Close(ctx context.Context) error {
	if a.Queue != nil {
		a.Queue.Shutdown(ctx)
	}
	return a.closeAll()
}

func (a *App) closeAll() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
