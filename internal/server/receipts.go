// Package server exposes the engine over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scanledger/scanledger/internal/common"
	"github.com/scanledger/scanledger/internal/entity"
	"github.com/scanledger/scanledger/internal/export"
	"github.com/scanledger/scanledger/internal/parser"
	"github.com/scanledger/scanledger/internal/pipeline"
	"github.com/scanledger/scanledger/internal/repository"
	"github.com/scanledger/scanledger/internal/timeparse"
)

// Handler carries the wired services behind the HTTP routes.
type Handler struct {
	processor *pipeline.Processor
	receipts  repository.ReceiptRepository
	exporter  *export.Service
	logger    *slog.Logger
}

func NewHandler(p *pipeline.Processor, repo repository.ReceiptRepository, ex *export.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{processor: p, receipts: repo, exporter: ex, logger: logger}
}

// Router builds the gin engine with all routes registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	{
		v1.POST("/receipts/parse", h.parseText)
		v1.POST("/receipts/scan", h.scanText)
		v1.POST("/receipts", h.createReceipt)
		v1.GET("/receipts", h.listReceipts)
		v1.GET("/receipts/:id", h.getReceipt)
		v1.DELETE("/receipts/:id", h.deleteReceipt)
		v1.GET("/receipts/export", h.exportReceipts)
	}
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

type parseRequest struct {
	Text string `json:"text" binding:"required"`
}

// parseText runs only the heuristic line parser over raw OCR text.
func (h *Handler) parseText(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items := parser.Parse(req.Text)
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// scanText runs the full pipeline (cloud extraction with heuristic
// fallback) and returns the reconciled candidate for review.
func (h *Handler) scanText(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.processor.ProcessText(c.Request.Context(), req.Text)
	if err != nil {
		h.logger.Error("server.scan.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidate": res.Candidate,
		"used_ai":   res.UsedAI,
		"status":    res.Status,
	})
}

// createReceipt persists a reviewed candidate. A suspected duplicate is a
// 409 with the candidate echoed back, which the client may override with
// ?force=1.
func (h *Handler) createReceipt(c *gin.Context) {
	var cand entity.ReceiptCandidate
	if err := c.ShouldBindJSON(&cand); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cand.PurchaseDateTime != "" {
		normalized, ok := timeparse.Normalize(cand.PurchaseDateTime, false)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable purchase_datetime"})
			return
		}
		cand.PurchaseDateTime = normalized
	}

	force := c.Query("force") == "1"
	outcome, err := h.processor.Save(c.Request.Context(), cand, force)
	if err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate receipt", "candidate": cand})
			return
		}
		h.logger.Error("server.create.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	if outcome.Duplicate {
		c.JSON(http.StatusConflict, gin.H{
			"warning":   "a similar receipt already exists; retry with ?force=1 to save anyway",
			"candidate": cand,
		})
		return
	}
	c.JSON(http.StatusCreated, outcome.Receipt)
}

func (h *Handler) listReceipts(c *gin.Context) {
	from, ok := h.dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to")
	if !ok {
		return
	}
	recs, err := h.receipts.ListBetween(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("server.list.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipts": recs})
}

func (h *Handler) getReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}
	rec, err := h.receipts.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
			return
		}
		h.logger.Error("server.get.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) deleteReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid receipt id"})
		return
	}
	if err := h.receipts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
			return
		}
		h.logger.Error("server.delete.failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// exportReceipts streams the date window as xlsx (default) or csv.
func (h *Handler) exportReceipts(c *gin.Context) {
	from, ok := h.dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to")
	if !ok {
		return
	}

	switch c.DefaultQuery("format", "xlsx") {
	case "csv":
		b, err := h.exporter.ExportCSV(c.Request.Context(), from, to)
		if err != nil {
			h.logger.Error("server.export.failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="receipts.csv"`)
		c.Data(http.StatusOK, "text/csv", b)
	case "xlsx":
		b, err := h.exporter.ExportXLSX(c.Request.Context(), from, to)
		if err != nil {
			h.logger.Error("server.export.failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="receipts.xlsx"`)
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", b)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
	}
}

// dateQuery parses an optional ?from= / ?to= date parameter. A present but
// unparseable value is a 400; absent is nil.
func (h *Handler) dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, ok := timeparse.Parse(raw, false)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable " + name + " date"})
		return nil, false
	}
	return &t, true
}
