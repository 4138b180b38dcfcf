package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scanledger/scanledger/internal/llm"
)

// Extract implements llm.Extractor using chat/completions. When the OCR
// confidence is weak and an image path is available, the image is attached
// as a data URL alongside the text.
func (c *Client) Extract(ctx context.Context, req llm.ExtractRequest) (llm.ReceiptData, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.OCRText),
		"has_image", req.ImagePath != "",
		"prep_confidence", req.PrepConfidence,
	)

	schema := llm.BuildReceiptJSONSchema()
	sys := llm.BuildSystemPrompt(req)
	user := llm.BuildUserPrompt(req.OCRText)

	var userContent any = user + "\n\nReturn ONLY JSON that matches the provided schema."
	if attach, dataURL, mt := llm.ShouldAttachImage(req); attach {
		c.logger.Info("llm.extract.attach_image", "req_id", rid, "mime_type", mt)
		userContent = []map[string]any{
			{"type": "text", "text": user},
			{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
		}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": userContent},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if httpErr != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReceiptData{}, nil, httpErr
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReceiptData{}, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.logger.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReceiptData{}, raw, fmt.Errorf("no choices in openai response")
	}

	content := []byte(llm.ExtractJSONBlock(cc.Choices[0].Message.Content))

	// Strict validation first; the normalizer still coerces defensively, but
	// a schema failure is worth surfacing in the logs.
	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		c.logger.Warn("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}

	data := llm.NormalizeResponse(content)

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"merchant", data.Merchant,
		"datetime", data.PurchaseDateTime,
		"items", len(data.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return data, content, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
