package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/services"
	"spendwise/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "spendwise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return NewServer(":0", services.NewLedgerService(repo, nil), "Rs")
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func createTransaction(t *testing.T, s *Server, desc, amount, category, date string) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]string{
		"description": desc, "amount": amount, "category": category, "date": date,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCreateAndListTransactions(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, "Salary", "1000", "Income", "2025-06-01")

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", map[string]string{
		"description": "Nothing", "amount": "0", "category": "Other", "date": "2025-06-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "zero amounts are rejected")

	rec = doJSON(t, s, http.MethodGet, "/api/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var txs []transactionJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
	require.Len(t, txs, 1)
	assert.Equal(t, "Salary", txs[0].Description)
	assert.Equal(t, "1000.00", txs[0].Amount)
	assert.Equal(t, "Rs 1000.00", txs[0].Display)
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "Coffee", "-3.50", "Food", "2025-06-01")

	rec := doJSON(t, s, http.MethodDelete, "/api/transactions/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Deleting again is a silent no-op.
	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/transactions/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummary(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "Salary", "1000", "Income", "2025-06-01")
	createTransaction(t, s, "Groceries", "-250", "Food", "2025-06-02")
	createTransaction(t, s, "Dinner", "-150", "Food", "2025-06-03")
	createTransaction(t, s, "Bus pass", "-100", "Transportation", "2025-06-04")

	rec := doJSON(t, s, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "500.00", sum.Balance)
	assert.Equal(t, "1000.00", sum.Income)
	assert.Equal(t, "500.00", sum.Expense)
	require.Len(t, sum.Breakdown, 2)
	assert.Equal(t, categoryTotalJSON{Category: "Food", Total: "400.00"}, sum.Breakdown[0])
	assert.Equal(t, categoryTotalJSON{Category: "Transportation", Total: "100.00"}, sum.Breakdown[1])
	assert.Equal(t, "400.00", sum.ChartMax)
	assert.Equal(t, []string{"400.00", "320.00", "240.00", "160.00", "80.00", "0.00"}, sum.ChartTicks)
}

func TestSummaryCacheInvalidatedOnMutation(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "Salary", "1000", "Income", "2025-06-01")

	rec := doJSON(t, s, http.MethodGet, "/api/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	createTransaction(t, s, "Groceries", "-250", "Food", "2025-06-02")

	rec = doJSON(t, s, http.MethodGet, "/api/summary", nil)
	var sum summaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	assert.Equal(t, "750.00", sum.Balance, "summary must reflect the new transaction")
}

func TestCategoryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/categories", map[string]string{"name": "Healthcare"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/categories", map[string]string{"name": "Healthcare"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, "/api/categories/Other", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "the fallback category is protected")

	rec = doJSON(t, s, http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cats []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	assert.Contains(t, cats, "Healthcare")
}

func TestGoalLifecycle(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "Salary", "1000", "Income", "2025-06-01")

	rec := doJSON(t, s, http.MethodPost, "/api/goals", map[string]string{
		"name": "Emergency Fund", "target_amount": "5000", "target_date": "2030-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var g goalJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	require.NotEmpty(t, g.ID)

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+g.ID+"/contribute", map[string]string{"amount": "2000"})
	assert.Equal(t, http.StatusConflict, rec.Code, "contributions above the balance are refused")

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+g.ID+"/contribute", map[string]string{"amount": "400"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Goal        goalJSON        `json:"goal"`
		Transaction transactionJSON `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "400.00", result.Goal.CurrentAmount)
	assert.Equal(t, "-400.00", result.Transaction.Amount)
	assert.Equal(t, "Savings", result.Transaction.Category)
	assert.Equal(t, "Contribution to Emergency Fund", result.Transaction.Description)

	newName := "Bigger Fund"
	rec = doJSON(t, s, http.MethodPatch, "/api/goals/"+g.ID, map[string]string{"name": newName})
	require.Equal(t, http.StatusOK, rec.Code)
	var edited goalJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &edited))
	assert.Equal(t, newName, edited.Name)

	rec = doJSON(t, s, http.MethodDelete, "/api/goals/"+g.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/api/goals/"+g.ID+"/contribute", map[string]string{"amount": "10"})
	assert.Equal(t, http.StatusNoContent, rec.Code, "contribution to a missing goal is a no-op")
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t)
	createTransaction(t, s, "Salary", "1000", "Income", "2025-06-01")
	createTransaction(t, s, "Groceries", "-250", "Food", "2025-06-02")

	rec := doJSON(t, s, http.MethodGet, "/api/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
