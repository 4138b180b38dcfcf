package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanledger/scanledger/internal/dedupe"
	"github.com/scanledger/scanledger/internal/entity"
	"github.com/scanledger/scanledger/internal/export"
	"github.com/scanledger/scanledger/internal/pipeline"
	"github.com/scanledger/scanledger/internal/repository"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewReceiptRepository(db, nil)
	proc := pipeline.NewProcessor(nil, nil, nil, repo, dedupe.Detector{})
	h := NewHandler(proc, repo, export.NewService(repo, nil), nil)
	return h.Router()
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestParseEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/receipts/parse",
		gin.H{"text": "Milk 2L          3.00"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []entity.CandidateItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Milk 2L", resp.Items[0].Description)
}

func TestParseEndpointMissingText(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/receipts/parse", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateGetDeleteReceipt(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/receipts", entity.ReceiptCandidate{
		MerchantName:     "Loblaws",
		PurchaseDateTime: "14/01/2025 20:18:33",
		Total:            ptr(11.30),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created entity.Receipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	// datetime was normalized on the way in
	assert.Equal(t, "2025-01-14 20:18:33", created.PurchaseDateTime)

	w = doJSON(t, r, http.MethodGet, "/v1/receipts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/v1/receipts/"+created.ID.String(), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/receipts/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateReceiptRejectsBadDatetime(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/receipts", entity.ReceiptCandidate{
		PurchaseDateTime: "not a date",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateReceiptDuplicateConflict(t *testing.T) {
	r := newTestRouter(t)
	cand := entity.ReceiptCandidate{
		PurchaseDateTime: "2025-01-14 20:18:33",
		Total:            ptr(42.10),
	}

	w := doJSON(t, r, http.MethodPost, "/v1/receipts", cand)
	require.Equal(t, http.StatusCreated, w.Code)

	// fuzzy match 30s later
	near := cand
	near.PurchaseDateTime = "2025-01-14 20:19:03"
	w = doJSON(t, r, http.MethodPost, "/v1/receipts", near)
	require.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/v1/receipts?force=1", near)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestListReceipts(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/receipts", entity.ReceiptCandidate{
		PurchaseDateTime: "2025-01-14 20:18:33",
		Total:            ptr(11.30),
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/receipts?from=2025-01-01&to=2025-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Receipts []entity.Receipt `json:"receipts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Receipts, 1)

	w = doJSON(t, r, http.MethodGet, "/v1/receipts?from=2025-02-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Receipts)

	w = doJSON(t, r, http.MethodGet, "/v1/receipts?from=garbage", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportCSVEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/v1/receipts/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Purchase Date")

	w = doJSON(t, r, http.MethodGet, "/v1/receipts/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func ptr(v float64) *float64 { return &v }
