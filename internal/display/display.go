package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lox/walletwise/internal/types"
	"github.com/lox/walletwise/internal/upi"
)

const barWidth = 30

// Renderer writes human readable output using an explicit theme
type Renderer struct {
	w        io.Writer
	theme    Theme
	timezone *time.Location
}

func NewRenderer(w io.Writer, theme Theme, timezone *time.Location) *Renderer {
	if timezone == nil {
		timezone = time.Local
	}
	return &Renderer{w: w, theme: theme, timezone: timezone}
}

// Rupees formats an amount in Indian Rupees
func Rupees(amount decimal.Decimal) string {
	return "₹" + amount.StringFixed(2)
}

func (r *Renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) transactionLine(tx types.Transaction) string {
	line := fmt.Sprintf("%s  %s  %s  %s",
		r.theme.Muted.Render(tx.Date.In(r.timezone).Format("02 Jan 2006 15:04")),
		r.theme.Amount.Render(Rupees(tx.Amount)),
		r.theme.Payee.Render(tx.Payee),
		r.theme.Category.Render("["+tx.Category+"]"))
	return line
}

func (r *Renderer) transactionDetails(tx types.Transaction) {
	r.printf("  UPI ID: %s\n", tx.UPIID)
	if tx.Notes != "" {
		r.printf("  Notes: %s\n", tx.Notes)
	}
}

// Transactions prints a transaction list, newest first as given
func (r *Renderer) Transactions(txs []types.Transaction) {
	if len(txs) == 0 {
		r.printf("No transactions found\n")
		return
	}
	r.printf("%s\n\n", r.theme.Title.Render(fmt.Sprintf("Recent transactions (%d)", len(txs))))
	for _, tx := range txs {
		r.printf("%s\n", r.transactionLine(tx))
		r.transactionDetails(tx)
	}
}

// ScoredTransactions prints semantic search results with their similarity
func (r *Renderer) ScoredTransactions(query string, results []types.ScoredTransaction) {
	if len(results) == 0 {
		r.printf("No transactions found\n")
		return
	}
	r.printf("%s\n\n", r.theme.Title.Render(fmt.Sprintf("Found %d transactions for %q", len(results), query)))
	for _, res := range results {
		r.printf("%s %s\n", r.transactionLine(res.Transaction),
			r.theme.Score.Render(fmt.Sprintf("(similarity: %.2f)", res.Similarity)))
		r.transactionDetails(res.Transaction)
	}
}

// CategoryTotals prints spending per category with a proportional bar
func (r *Renderer) CategoryTotals(title string, totals []types.CategoryTotal) {
	r.printf("%s\n", r.theme.Title.Render(title))
	if len(totals) == 0 {
		r.printf("No spending recorded\n")
		return
	}

	var sum decimal.Decimal
	width := 0
	for _, c := range totals {
		sum = sum.Add(c.Amount)
		width = max(width, len(c.Name))
	}
	for _, c := range totals {
		r.printf("%-*s  %s  %s\n", width, c.Name,
			r.theme.Bar.Render(bar(c.Amount, sum)),
			r.theme.Amount.Render(Rupees(c.Amount)))
	}
	r.printf("%-*s  %s  %s\n", width, "Total", strings.Repeat(" ", barWidth), Rupees(sum))
}

// MonthlyTotals prints spending per month, oldest first as given
func (r *Renderer) MonthlyTotals(totals []types.MonthlyTotal) {
	r.printf("%s\n", r.theme.Title.Render("Monthly spending"))
	if len(totals) == 0 {
		r.printf("No spending recorded\n")
		return
	}

	var peak decimal.Decimal
	for _, m := range totals {
		if m.Amount.GreaterThan(peak) {
			peak = m.Amount
		}
	}
	for _, m := range totals {
		label := m.Month
		if t, err := time.Parse("2006-01", m.Month); err == nil {
			label = t.Format("Jan 2006")
		}
		r.printf("%-8s  %s  %s\n", label,
			r.theme.Bar.Render(bar(m.Amount, peak)),
			r.theme.Amount.Render(Rupees(m.Amount)))
	}
}

// bar draws value as a share of total, padded to a fixed width
func bar(value, total decimal.Decimal) string {
	n := 0
	if total.IsPositive() {
		n = int(value.Div(total).Mul(decimal.NewFromInt(barWidth)).Round(0).IntPart())
	}
	n = min(max(n, 0), barWidth)
	return strings.Repeat("█", n) + strings.Repeat(" ", barWidth-n)
}

// Payment prints a payment for review before it is handed to a UPI app
func (r *Renderer) Payment(req upi.PaymentRequest, category string) {
	r.printf("%s\n", r.theme.Title.Render("Payment"))
	r.printf("  Pay:      %s\n", r.theme.Payee.Render(req.PayeeName))
	r.printf("  UPI ID:   %s\n", req.PayeeAddress)
	r.printf("  Amount:   %s\n", r.theme.Amount.Render("₹"+req.Amount))
	if req.Notes != "" {
		r.printf("  Notes:    %s\n", req.Notes)
	}
	if category != "" {
		r.printf("  Category: %s\n", r.theme.Category.Render(category))
	}
	r.printf("  Link:     %s\n", r.theme.Muted.Render(upi.BuildPaymentURL(req)))
}

// ChatMessage prints one turn of an assistant conversation
func (r *Renderer) ChatMessage(role, content string) {
	switch role {
	case "user":
		r.printf("%s %s\n\n", r.theme.User.Render("You:"), content)
	default:
		r.printf("%s %s\n\n", r.theme.Assistant.Render("WalletWise:"), content)
	}
}

// Suggestions prints starter questions
func (r *Renderer) Suggestions(suggestions []string) {
	r.printf("%s\n", r.theme.Muted.Render("Try asking:"))
	for _, s := range suggestions {
		r.printf("  • %s\n", r.theme.Suggestion.Render(s))
	}
	r.printf("\n")
}

// Success prints a confirmation line
func (r *Renderer) Success(msg string) {
	r.printf("%s\n", r.theme.Success.Render(msg))
}

// Error prints a user facing error line
func (r *Renderer) Error(msg string) {
	r.printf("%s\n", r.theme.Error.Render(msg))
}
