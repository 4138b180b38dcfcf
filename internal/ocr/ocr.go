// Package ocr wraps on-device text recognition behind a black-box interface:
// image in, raw text out. The engine downstream tolerates empty text.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config for the tesseract-backed recognizer.
type Config struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string

	PSM int // e.g., 6 is good for a uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Result carries the recognized text plus a heuristic confidence used to
// decide whether the cloud extractor should also see the image.
type Result struct {
	Text       string
	Duration   time.Duration
	Confidence float32
}

// Recognizer is the black-box text-recognition contract the pipeline
// depends on. Implementations may return empty text for a blank image.
type Recognizer interface {
	RecognizeText(ctx context.Context, imagePath string) (Result, error)
}

// Extractor runs tesseract through a Runner.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; tests stub it.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// RecognizeText OCRs one image and normalizes the output text.
func (e *Extractor) RecognizeText(ctx context.Context, imagePath string) (Result, error) {
	start := time.Now()

	args := []string{imagePath, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprint(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprint(e.cfg.OEM))
	}

	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return Result{Duration: time.Since(start)}, fmt.Errorf("tesseract: %w", err)
	}

	txt := Normalize(string(out))
	res := Result{
		Text:       txt,
		Duration:   time.Since(start),
		Confidence: heuristicConfidence(txt),
	}
	e.logger.Info("ocr.recognize.ok",
		"image", imagePath,
		"bytes", len(txt),
		"confidence", res.Confidence,
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
