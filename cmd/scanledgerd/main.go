package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/scanledger/scanledger/internal/common"
	"github.com/scanledger/scanledger/internal/dedupe"
	"github.com/scanledger/scanledger/internal/export"
	"github.com/scanledger/scanledger/internal/llm"
	"github.com/scanledger/scanledger/internal/llm/openai"
	"github.com/scanledger/scanledger/internal/ocr"
	"github.com/scanledger/scanledger/internal/pipeline"
	"github.com/scanledger/scanledger/internal/repository"
	"github.com/scanledger/scanledger/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	receipts := repository.NewReceiptRepository(db, logger)

	var extractor llm.Extractor
	if cfg.LLM.APIKey != "" {
		extractor = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set; running with heuristic parser only")
	}

	recognizer := ocr.NewExtractor(ocr.Config{
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	processor := pipeline.NewProcessor(logger, recognizer, extractor, receipts,
		dedupe.Detector{Tolerance: cfg.Dedupe.Tolerance})
	exporter := export.NewService(receipts, logger)
	handler := server.NewHandler(processor, receipts, exporter, logger)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("http serving", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
