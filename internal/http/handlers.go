package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/report"
	"spendwise/internal/services"
)

// --- wire types ---

type transactionJSON struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Display     string `json:"display"`
	Category    string `json:"category"`
	Date        string `json:"date"`
}

type goalJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  string  `json:"target_amount"`
	CurrentAmount string  `json:"current_amount"`
	TargetDate    string  `json:"target_date"`
	Percent       float64 `json:"percent"`
	Remaining     string  `json:"remaining"`
	DaysLeft      int     `json:"days_left"`
	DailyNeeded   string  `json:"daily_needed"`
	Completed     bool    `json:"completed"`
	Overdue       bool    `json:"overdue"`
}

type categoryTotalJSON struct {
	Category string `json:"category"`
	Total    string `json:"total"`
}

type summaryResponse struct {
	Balance    string              `json:"balance"`
	Income     string              `json:"income"`
	Expense    string              `json:"expense"`
	Breakdown  []categoryTotalJSON `json:"breakdown"`
	ChartMax   string              `json:"chart_max"`
	ChartTicks []string            `json:"chart_ticks"`
}

func toTransactionJSON(tx core.Transaction, symbol string) transactionJSON {
	return transactionJSON{
		ID:          tx.ID,
		Description: tx.Description,
		Amount:      tx.Amount.Decimal(),
		Display:     tx.Amount.Display(symbol),
		Category:    tx.Category,
		Date:        tx.Date.String(),
	}
}

func toGoalJSON(g core.Goal, now time.Time) goalJSON {
	p := core.ComputeGoalProgress(g, now)
	return goalJSON{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  g.TargetAmount.Decimal(),
		CurrentAmount: g.CurrentAmount.Decimal(),
		TargetDate:    g.TargetDate.String(),
		Percent:       p.Percent,
		Remaining:     p.Remaining.Decimal(),
		DaysLeft:      p.DaysLeft,
		DailyNeeded:   p.DailyNeeded.Decimal(),
		Completed:     p.Completed,
		Overdue:       p.Overdue,
	}
}

// --- transactions ---

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.svc.ListTransactions(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx, s.currencySymbol))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
		Category    string `json:"category"`
		Date        string `json:"date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseSignedDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}

	tx, err := s.svc.AddTransaction(r.Context(), core.Transaction{
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Category:    req.Category,
		Date:        date,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.summaryCache.Invalidate()
	writeJSON(w, http.StatusCreated, toTransactionJSON(tx, s.currencySymbol))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	if err := s.svc.DeleteTransaction(r.Context(), id); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.summaryCache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- categories ---

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.ListCategories(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.svc.AddCategory(r.Context(), req.Name); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.summaryCache.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- goals ---

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.svc.ListGoals(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	now := time.Now()
	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoalJSON(g, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string `json:"name"`
		TargetAmount  string `json:"target_amount"`
		InitialAmount string `json:"initial_amount"`
		TargetDate    string `json:"target_date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	target, err := core.ParseSignedDecimalToCents(req.TargetAmount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target amount")
		return
	}

	var initial int64
	if req.InitialAmount != "" {
		initial, err = core.ParseSignedDecimalToCents(req.InitialAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid initial amount")
			return
		}
	}

	date, err := core.ParseDate(req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target date, want YYYY-MM-DD")
		return
	}

	g, err := s.svc.AddGoal(r.Context(), req.Name,
		core.Money{Cents: target}, core.Money{Cents: initial}, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalJSON(g, time.Now()))
}

func (s *Server) handleEditGoal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         *string `json:"name"`
		TargetAmount *string `json:"target_amount"`
		TargetDate   *string `json:"target_date"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	update := services.GoalUpdate{Name: req.Name}
	if req.TargetAmount != nil {
		cents, err := core.ParseSignedDecimalToCents(*req.TargetAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target amount")
			return
		}
		update.TargetAmount = &core.Money{Cents: cents}
	}
	if req.TargetDate != nil {
		date, err := core.ParseDate(*req.TargetDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid target date, want YYYY-MM-DD")
			return
		}
		update.TargetDate = &date
	}

	g, err := s.svc.EditGoal(r.Context(), r.PathValue("id"), update)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if g == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toGoalJSON(*g, time.Now()))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		s.serverError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleContribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cents, err := core.ParseSignedDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	g, tx, err := s.svc.ContributeToGoal(r.Context(), r.PathValue("id"), core.Money{Cents: cents})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if g == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.summaryCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]any{
		"goal":        toGoalJSON(*g, time.Now()),
		"transaction": toTransactionJSON(*tx, s.currencySymbol),
	})
}

// --- summary and report ---

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.summaryCache.Get(); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.svc.ListTransactions(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	totals := core.ComputeTotals(txs)
	breakdown := core.ComputeCategoryBreakdown(txs)
	scale := core.ComputeChartScale(breakdown)

	resp := summaryResponse{
		Balance:   totals.Balance.Decimal(),
		Income:    totals.Income.Decimal(),
		Expense:   totals.Expense.Decimal(),
		Breakdown: make([]categoryTotalJSON, 0, len(breakdown)),
	}
	for _, ct := range breakdown {
		resp.Breakdown = append(resp.Breakdown, categoryTotalJSON{
			Category: ct.Category,
			Total:    ct.Total.Decimal(),
		})
	}
	resp.ChartMax = scale.Max.Decimal()
	for _, tick := range scale.Ticks {
		resp.ChartTicks = append(resp.ChartTicks, tick.Decimal())
	}

	s.summaryCache.Set(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	txs, err := s.svc.ListTransactions(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	recent, err := s.svc.RecentTransactions(ctx, 5)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	goals, err := s.svc.ListGoals(ctx)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	data := report.ReportData{
		GeneratedAt:    time.Now(),
		CurrencySymbol: s.currencySymbol,
		Totals:         core.ComputeTotals(txs),
		Breakdown:      core.ComputeCategoryBreakdown(txs),
		Recent:         recent,
		Goals:          goals,
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "financial-report-"+data.GeneratedAt.Format("2006-01-02")+".pdf"))
	if err := report.Generate(w, data); err != nil {
		slog.ErrorContext(ctx, "Report generation failed", "error", err)
	}
}

// --- response helpers ---

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps service and validation errors to HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrGoalNameTooShort),
		errors.Is(err, core.ErrInvalidTarget),
		errors.Is(err, core.ErrNegativeProgress),
		errors.Is(err, core.ErrPastTargetDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateCategory),
		errors.Is(err, services.ErrProtectedCategory),
		errors.Is(err, services.ErrLastCategory),
		errors.Is(err, core.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.serverError(w, r, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "Request failed",
		"method", r.Method, "url", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
