package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is a spending category attached to a transaction
type Category struct {
	Name string
	Icon string
}

// CategoryFood is used when a transaction is saved without a category
const CategoryFood = "Food"

// Categories are the spending categories a payment can be filed under
var Categories = []Category{
	{Name: "Food", Icon: "food"},
	{Name: "Transportation", Icon: "bus"},
	{Name: "Shopping", Icon: "shopping"},
	{Name: "Entertainment", Icon: "movie-open"},
	{Name: "Utilities", Icon: "lightbulb"},
	{Name: "Rent", Icon: "home"},
	{Name: "Healthcare", Icon: "medical-bag"},
	{Name: "Education", Icon: "school"},
	{Name: "Travel", Icon: "airplane"},
	{Name: "Subscriptions", Icon: "youtube-subscription"},
	{Name: "Other", Icon: "tag"},
}

// CategoryNames returns the names of all known categories, in display order
func CategoryNames() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// IsCategory reports whether name is one of the known categories
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// NewTransaction is a confirmed payment that has not been stored yet
type NewTransaction struct {
	UPIID    string `json:"upiId"`
	Payee    string `json:"payee"`
	Amount   string `json:"amount"`
	Notes    string `json:"notes,omitempty"`
	Category string `json:"category,omitempty"`
}

// Transaction is a stored payment record
type Transaction struct {
	ID       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Payee    string          `json:"payee"`
	UPIID    string          `json:"upi_id"`
	Notes    string          `json:"notes"`
	Category string          `json:"category"`
	Date     time.Time       `json:"transaction_date"`
}

// SearchBody is the text used to embed a transaction for semantic search
func (t Transaction) SearchBody() string {
	body := t.Payee
	if t.Category != "" {
		body += " " + t.Category
	}
	if t.Notes != "" {
		body += " " + t.Notes
	}
	return body
}

// EmbeddedTransaction is a transaction with its embedding vector, if one exists
type EmbeddedTransaction struct {
	Transaction
	Embedding []float32 `json:"-"`
}

// CategoryTotal is the amount spent in a single category
type CategoryTotal struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyTotal is the amount spent in a single calendar month (YYYY-MM)
type MonthlyTotal struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}
