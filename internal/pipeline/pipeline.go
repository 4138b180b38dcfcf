// Package pipeline coordinates one receipt's trip from image or raw text to
// a persisted record: recognize, extract, reconcile, dedupe, save.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scanledger/scanledger/constants"
	"github.com/scanledger/scanledger/internal/dedupe"
	"github.com/scanledger/scanledger/internal/entity"
	"github.com/scanledger/scanledger/internal/llm"
	"github.com/scanledger/scanledger/internal/ocr"
	"github.com/scanledger/scanledger/internal/parser"
	"github.com/scanledger/scanledger/internal/reconcile"
	"github.com/scanledger/scanledger/internal/repository"
	"github.com/scanledger/scanledger/internal/timeparse"
)

// Processor wires the stages together. Extractor may be nil, in which case
// only the heuristic line parser runs.
type Processor struct {
	Logger    *slog.Logger
	OCR       ocr.Recognizer
	Extractor llm.Extractor
	Receipts  repository.ReceiptRepository
	Detector  dedupe.Detector
}

func NewProcessor(logger *slog.Logger, rec ocr.Recognizer, ex llm.Extractor, repo repository.ReceiptRepository, det dedupe.Detector) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, OCR: rec, Extractor: ex, Receipts: repo, Detector: det}
}

// ScanResult is the outcome of processing one receipt up to the review step.
type ScanResult struct {
	Candidate  entity.ReceiptCandidate
	RawText    string
	UsedAI     bool
	Confidence float32
	Status     constants.ScanStatus
}

// ProcessImage recognizes text from an image and builds a candidate.
func (p *Processor) ProcessImage(ctx context.Context, imagePath string) (ScanResult, error) {
	res, err := p.OCR.RecognizeText(ctx, imagePath)
	if err != nil {
		p.Logger.Error("pipeline.ocr.failed", "image", imagePath, "status", constants.ScanStatusFailed, "err", err)
		return ScanResult{Status: constants.ScanStatusFailed}, fmt.Errorf("recognize text: %w", err)
	}
	p.Logger.Info("pipeline.ocr.ok", "image", imagePath, "status", constants.ScanStatusOCROK,
		"bytes", len(res.Text), "confidence", res.Confidence)
	return p.processText(ctx, res.Text, imagePath, res.Confidence, true)
}

// ProcessText builds a candidate from already-recognized text.
func (p *Processor) ProcessText(ctx context.Context, rawText string) (ScanResult, error) {
	return p.processText(ctx, rawText, "", 1.0, false)
}

// processText tries the cloud extractor first and falls back to the
// heuristic line parser when extraction fails or yields nothing; the caller
// surfaces that as a non-blocking notice, not an error.
func (p *Processor) processText(ctx context.Context, rawText, imagePath string, confidence float32, liveScan bool) (ScanResult, error) {
	out := ScanResult{RawText: rawText, Confidence: confidence, Status: constants.ScanStatusRunning}

	if p.Extractor != nil {
		data, _, err := p.Extractor.Extract(ctx, llm.ExtractRequest{
			OCRText:        rawText,
			ImagePath:      imagePath,
			PrepConfidence: confidence,
		})
		if err != nil {
			p.Logger.Warn("pipeline.extract.failed", "err", err)
		} else if data.Empty() {
			p.Logger.Warn("pipeline.extract.empty")
		} else {
			out.UsedAI = true
			out.Candidate = candidateFromAI(data, liveScan)
		}
	}

	if !out.UsedAI {
		items := parser.Parse(rawText)
		p.Logger.Info("pipeline.parse.ok", "items", len(items))
		out.Candidate = candidateFromParsed(items)
	}

	reconcileItems(out.Candidate.Items)
	out.Status = constants.ScanStatusExtractOK
	return out, nil
}

// SaveOutcome reports what happened to a candidate handed to Save.
type SaveOutcome struct {
	Receipt   *entity.Receipt
	Duplicate bool
}

// Save runs the fuzzy duplicate check against a store snapshot, then
// persists. A suspected duplicate is reported, not saved, unless force is
// set; the strict unique index still backstops a forced save against exact
// collisions.
func (p *Processor) Save(ctx context.Context, cand entity.ReceiptCandidate, force bool) (SaveOutcome, error) {
	if !force && cand.PurchaseDateTime != "" {
		existing, err := p.Receipts.Snapshot(ctx)
		if err != nil {
			return SaveOutcome{}, fmt.Errorf("fetch existing receipts: %w", err)
		}
		if p.Detector.IsDuplicate(cand.PurchaseDateTime, cand.Total, existing) {
			p.Logger.Warn("pipeline.save.duplicate_suspected",
				"datetime", cand.PurchaseDateTime)
			return SaveOutcome{Duplicate: true}, nil
		}
	}
	rec, err := p.Receipts.Create(ctx, cand)
	if err != nil {
		return SaveOutcome{}, err
	}
	return SaveOutcome{Receipt: rec}, nil
}

func candidateFromAI(data llm.ReceiptData, liveScan bool) entity.ReceiptCandidate {
	cand := entity.ReceiptCandidate{
		MerchantName: data.Merchant,
		Subtotal:     data.Subtotal,
		Tax:          data.Tax,
		Total:        data.Total,
	}
	// The model's datetime is as untrusted as the rest; run it through the
	// same normalizer, favoring the current year for live scans.
	if data.PurchaseDateTime != "" {
		if s, ok := timeparse.Normalize(data.PurchaseDateTime, liveScan); ok {
			cand.PurchaseDateTime = s
		}
	}
	for _, it := range data.Items {
		cand.Items = append(cand.Items, entity.CandidateItem{
			Description: it.Description,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return cand
}

func candidateFromParsed(items []parser.LineItem) entity.ReceiptCandidate {
	cand := entity.ReceiptCandidate{}
	for _, it := range items {
		cand.Items = append(cand.Items, entity.CandidateItem{
			Description: it.Description,
			Qty:         it.Qty,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	return cand
}

func reconcileItems(items []entity.CandidateItem) {
	for i := range items {
		items[i].Qty, items[i].UnitPrice, items[i].LineTotal =
			reconcile.Reconcile(items[i].Qty, items[i].UnitPrice, items[i].LineTotal)
	}
}
