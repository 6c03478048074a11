// Package report renders the financial summary PDF: totals, category
// breakdown with proportional bars, recent activity, and goal progress.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"spendwise/internal/core"
)

// ReportData is everything the PDF needs, assembled by the caller so the
// renderer stays free of storage concerns.
type ReportData struct {
	GeneratedAt    time.Time
	CurrencySymbol string
	Totals         core.Totals
	Breakdown      []core.CategoryTotal
	Recent         []core.Transaction
	Goals          []core.Goal
}

const (
	pageWidth  = 210.0
	marginX    = 15.0
	contentW   = pageWidth - 2*marginX
	recentRows = 5
)

// Generate writes the summary report as a single-page-or-more PDF.
func Generate(w io.Writer, data ReportData) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, 15, marginX)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	drawHeader(pdf, data.GeneratedAt)
	drawSummaryBoxes(pdf, data)
	drawBreakdown(pdf, data)
	drawRecent(pdf, data)
	drawGoals(pdf, data)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func drawHeader(pdf *fpdf.Fpdf, generated time.Time) {
	pdf.SetFillColor(44, 62, 80)
	pdf.Rect(0, 0, pageWidth, 28, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(marginX, 8)
	pdf.CellFormat(contentW, 10, "Financial Summary Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetX(marginX)
	pdf.CellFormat(contentW, 5, "Generated on "+generated.Format("January 2, 2006"), "", 1, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(34)
}

func drawSummaryBoxes(pdf *fpdf.Fpdf, data ReportData) {
	boxW := (contentW - 10) / 3
	y := pdf.GetY()

	boxes := []struct {
		label string
		value core.Money
		r     int
		g     int
		b     int
	}{
		{"Income", data.Totals.Income, 39, 174, 96},
		{"Expenses", data.Totals.Expense, 192, 57, 43},
		{"Net Balance", data.Totals.Balance, 41, 128, 185},
	}

	for i, box := range boxes {
		x := marginX + float64(i)*(boxW+5)
		pdf.SetFillColor(box.r, box.g, box.b)
		pdf.RoundedRect(x, y, boxW, 22, 2, "1234", "F")

		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetXY(x, y+4)
		pdf.CellFormat(boxW, 5, box.label, "", 0, "C", false, 0, "")

		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetXY(x, y+11)
		pdf.CellFormat(boxW, 7, box.value.Display(data.CurrencySymbol), "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetY(y + 30)
}

func drawBreakdown(pdf *fpdf.Fpdf, data ReportData) {
	sectionTitle(pdf, "Spending by Category")

	if len(data.Breakdown) == 0 {
		emptyNote(pdf, "No expenses recorded yet.")
		return
	}

	total := data.Totals.Expense.Cents
	barMax := contentW - 95

	pdf.SetFont("Helvetica", "", 9)
	for _, ct := range data.Breakdown {
		pct := 0.0
		if total > 0 {
			pct = float64(ct.Total.Cents) / float64(total) * 100
		}

		y := pdf.GetY()
		pdf.SetX(marginX)
		pdf.CellFormat(40, 6, ct.Category, "", 0, "L", false, 0, "")

		pdf.SetFillColor(230, 230, 230)
		pdf.Rect(marginX+42, y+1, barMax, 4, "F")
		pdf.SetFillColor(52, 152, 219)
		pdf.Rect(marginX+42, y+1, barMax*pct/100, 4, "F")

		pdf.SetXY(marginX+44+barMax, y)
		pdf.CellFormat(50, 6, fmt.Sprintf("%s (%.1f%%)", ct.Total.Display(data.CurrencySymbol), pct), "", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func drawRecent(pdf *fpdf.Fpdf, data ReportData) {
	sectionTitle(pdf, "Recent Transactions")

	if len(data.Recent) == 0 {
		emptyNote(pdf, "No transactions recorded yet.")
		return
	}

	recent := data.Recent
	if len(recent) > recentRows {
		recent = recent[:recentRows]
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(236, 240, 241)
	pdf.SetX(marginX)
	pdf.CellFormat(25, 7, "Date", "B", 0, "L", true, 0, "")
	pdf.CellFormat(80, 7, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Category", "B", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, "Amount", "B", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, tx := range recent {
		pdf.SetX(marginX)
		pdf.CellFormat(25, 6, tx.Date.String(), "", 0, "L", false, 0, "")
		pdf.CellFormat(80, 6, truncate(tx.Description, 48), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, tx.Category, "", 0, "L", false, 0, "")
		if tx.Amount.Cents < 0 {
			pdf.SetTextColor(192, 57, 43)
		} else {
			pdf.SetTextColor(39, 174, 96)
		}
		pdf.CellFormat(35, 6, tx.Amount.Display(data.CurrencySymbol), "", 1, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)
}

func drawGoals(pdf *fpdf.Fpdf, data ReportData) {
	sectionTitle(pdf, "Savings Goals")

	if len(data.Goals) == 0 {
		emptyNote(pdf, "No savings goals set.")
		return
	}

	for _, g := range data.Goals {
		progress := core.ComputeGoalProgress(g, data.GeneratedAt)

		y := pdf.GetY()
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetX(marginX)
		pdf.CellFormat(contentW/2, 6, g.Name, "", 0, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		status := fmt.Sprintf("%s of %s (%.1f%%)",
			g.CurrentAmount.Display(data.CurrencySymbol),
			g.TargetAmount.Display(data.CurrencySymbol),
			progress.Percent)
		pdf.CellFormat(contentW/2, 6, status, "", 1, "R", false, 0, "")

		pdf.SetFillColor(230, 230, 230)
		pdf.Rect(marginX, y+7, contentW, 4, "F")
		switch {
		case progress.Completed:
			pdf.SetFillColor(39, 174, 96)
		case progress.Overdue:
			pdf.SetFillColor(192, 57, 43)
		default:
			pdf.SetFillColor(52, 152, 219)
		}
		pdf.Rect(marginX, y+7, contentW*progress.Percent/100, 4, "F")

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.SetXY(marginX, y+12)
		pdf.CellFormat(contentW, 5, goalFootnote(progress, data.CurrencySymbol), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(3)
	}
}

func goalFootnote(p core.GoalProgress, symbol string) string {
	switch {
	case p.Completed:
		return "Goal reached"
	case p.Overdue:
		return fmt.Sprintf("Past deadline, %s still needed", p.Remaining.Display(symbol))
	default:
		return fmt.Sprintf("%d days left, save %s per day", p.DaysLeft, p.DailyNeeded.Display(symbol))
	}
}

func sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(44, 62, 80)
	pdf.SetX(marginX)
	pdf.CellFormat(contentW, 8, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(44, 62, 80)
	pdf.Line(marginX, pdf.GetY(), marginX+contentW, pdf.GetY())
	pdf.Ln(3)
	pdf.SetTextColor(0, 0, 0)
}

func emptyNote(pdf *fpdf.Fpdf, note string) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetX(marginX)
	pdf.CellFormat(contentW, 6, note, "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
