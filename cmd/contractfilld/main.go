package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"contractfill/internal/common"
	"contractfill/internal/llm/openai"
	"contractfill/internal/loader"
	"contractfill/internal/metrics"
	"contractfill/internal/pipeline"
	"contractfill/internal/repository"
	"contractfill/internal/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("open job store", "path", cfg.Store.Path, "err", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	jobs := repository.NewJobRepository(db, logger)
	docLoader := loader.New(loader.Config{
		Pdftoppm:      cfg.Loader.Pdftoppm,
		Tesseract:     cfg.Loader.Tesseract,
		TesseractLang: cfg.Loader.TesseractLang,
		DPI:           cfg.Loader.DPI,
		MaxPages:      cfg.Loader.MaxPages,
		MaxFileSize:   cfg.Loader.MaxFileSize,
	}, logger)
	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	processor := pipeline.NewProcessor(logger, docLoader, extractor, jobs, m, cfg.Paths.TemplatesDir, 0)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: server.New(logger, processor, jobs, reg).Router(),
	}

	go func() {
		logger.Info("http.listen", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	logger.Info("stopped")
}
