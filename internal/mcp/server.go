package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lox/walletwise/internal/analyzer"
	"github.com/lox/walletwise/internal/db"
	"github.com/lox/walletwise/internal/embeddings"
	"github.com/lox/walletwise/internal/search"
	"github.com/lox/walletwise/internal/types"
	"github.com/lox/walletwise/internal/upi"
)

const searchWindowLimit = 1000

type Server struct {
	db       *db.DB
	analyzer *analyzer.Analyzer
	provider embeddings.Provider
	logger   *log.Logger
}

func New(db *db.DB, analyzer *analyzer.Analyzer, provider embeddings.Provider, logger *log.Logger) *Server {
	return &Server{
		db:       db,
		analyzer: analyzer,
		provider: provider,
		logger:   logger,
	}
}

// MCPServer builds the MCP server with all tools registered
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"WalletWise",
		"1.0.0",
	)

	mcpServer.AddTool(mcp.NewTool("list_transactions",
		mcp.WithDescription("List recent UPI payments, newest first"),
		mcp.WithString("days",
			mcp.Description("Only include payments from the last N days"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 50)"),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category: "+strings.Join(types.CategoryNames(), ", ")),
		),
	), s.listTransactionsHandler)

	mcpServer.AddTool(mcp.NewTool("spending_by_category",
		mcp.WithDescription("Total spending per category, largest first"),
		mcp.WithString("days",
			mcp.Description("Only include payments from the last N days (default: all time)"),
		),
	), s.spendingByCategoryHandler)

	mcpServer.AddTool(mcp.NewTool("monthly_spending",
		mcp.WithDescription("Total spending per calendar month, oldest first"),
	), s.monthlySpendingHandler)

	mcpServer.AddTool(mcp.NewTool("search_transactions",
		mcp.WithDescription("Semantic search over payments by payee, category and notes"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query - what you're looking for"),
		),
		mcp.WithString("days",
			mcp.Description("Number of days to look back (default: 365)"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of results to return (default: 5)"),
		),
		mcp.WithString("threshold",
			mcp.Description("Minimum similarity between 0 and 1 (default: 0.6)"),
		),
	), s.searchTransactionsHandler)

	mcpServer.AddTool(mcp.NewTool("build_upi_link",
		mcp.WithDescription("Build a upi://pay link for a payment"),
		mcp.WithString("upi_id", mcp.Required(), mcp.Description("Payee UPI ID, e.g. name@upi")),
		mcp.WithString("payee", mcp.Description("Payee name")),
		mcp.WithString("amount", mcp.Required(), mcp.Description("Amount in rupees")),
		mcp.WithString("notes", mcp.Description("Payment note")),
	), s.buildUPILinkHandler)

	mcpServer.AddTool(mcp.NewTool("parse_upi_qr",
		mcp.WithDescription("Decode the contents of a UPI payment QR code"),
		mcp.WithString("payload", mcp.Required(), mcp.Description("Text encoded in the QR code")),
	), s.parseUPIQRHandler)

	return mcpServer
}

// Run serves the tools over stdio until stdin closes
func (s *Server) Run() error {
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		return err
	}
	return nil
}

// intArg reads an optional integer argument that may arrive as a number or a string
func intArg(args map[string]any, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	switch v := v.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		if v == "" {
			return def, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", name, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number or string", name)
	}
}

func floatArg(args map[string]any, name string, def float64) (float64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}
	switch v := v.(type) {
	case float64:
		return v, nil
	case string:
		if v == "" {
			return def, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid number: %w", name, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%s must be a number or string", name)
	}
}

func stringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return v
}

func formatTransaction(t types.Transaction) string {
	result := fmt.Sprintf("%s: ₹%s - %s\n", t.Date.Format("2006-01-02 15:04"), t.Amount.StringFixed(2), t.Payee)
	result += fmt.Sprintf("  UPI ID: %s\n", t.UPIID)
	result += fmt.Sprintf("  Category: %s\n", t.Category)
	if t.Notes != "" {
		result += fmt.Sprintf("  Notes: %s\n", t.Notes)
	}
	return result
}

func (s *Server) recentTransactions(ctx context.Context, days, limit int) ([]types.Transaction, error) {
	if days <= 0 {
		return s.db.GetTransactions(ctx, limit)
	}
	now := time.Now()
	txs, err := s.db.GetTransactionsBetween(ctx, now.AddDate(0, 0, -days), now)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs, nil
}

func (s *Server) listTransactionsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	days, err := intArg(args, "days", 0)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", db.DefaultLimit)
	if err != nil {
		return nil, err
	}
	category := stringArg(args, "category")

	transactions, err := s.recentTransactions(ctx, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var result string
	for _, t := range transactions {
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		result += formatTransaction(t) + "\n"
	}
	if result == "" {
		result = "No transactions found\n"
	}

	return mcp.NewToolResultText(result), nil
}

func (s *Server) spendingByCategoryHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := intArg(request.Params.Arguments, "days", 0)
	if err != nil {
		return nil, err
	}

	var totals []types.CategoryTotal
	title := "Spending by category (all time)"
	if days > 0 {
		now := time.Now()
		totals, err = s.db.GetCategorySpendingByPeriod(ctx, now.AddDate(0, 0, -days), now)
		title = fmt.Sprintf("Spending by category (last %d days)", days)
	} else {
		totals, err = s.db.GetTransactionsByCategory(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category spending: %w", err)
	}

	result := title + "\n\n"
	for _, c := range totals {
		result += fmt.Sprintf("%-20s ₹%s\n", c.Name, c.Amount.StringFixed(2))
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) monthlySpendingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	months, err := s.db.GetMonthlySpending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get monthly spending: %w", err)
	}

	result := "Monthly spending\n\n"
	for _, m := range months {
		result += fmt.Sprintf("%s ₹%s\n", m.Month, m.Amount.StringFixed(2))
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) searchTransactionsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments

	query, ok := args["query"].(string)
	if !ok {
		return nil, errors.New("query must be a string")
	}
	days, err := intArg(args, "days", 365)
	if err != nil {
		return nil, err
	}
	limit, err := intArg(args, "limit", 5)
	if err != nil {
		return nil, err
	}
	threshold, err := floatArg(args, "threshold", 0.6)
	if err != nil {
		return nil, err
	}

	transactions, err := s.recentTransactions(ctx, days, searchWindowLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	embedded, err := s.analyzer.LoadEmbedded(ctx, transactions)
	if err != nil {
		return nil, fmt.Errorf("failed to load embeddings: %w", err)
	}

	results := search.Local(ctx, s.logger, s.provider, query, embedded,
		search.WithThreshold(threshold), search.WithLimit(limit))

	if len(results) == 0 {
		return mcp.NewToolResultText("No transactions found\n"), nil
	}

	var result string
	for _, r := range results {
		result += strings.TrimSuffix(formatTransaction(r.Transaction), "\n")
		result += fmt.Sprintf("\n  Similarity: %.2f\n\n", r.Similarity)
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) buildUPILinkHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	req := upi.PaymentRequest{
		PayeeAddress: stringArg(args, "upi_id"),
		PayeeName:    stringArg(args, "payee"),
		Amount:       stringArg(args, "amount"),
		Notes:        stringArg(args, "notes"),
	}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(upi.BuildPaymentURL(req)), nil
}

func (s *Server) parseUPIQRHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qr := upi.ParseQR(s.logger, stringArg(request.Params.Arguments, "payload"))
	if qr == nil {
		return mcp.NewToolResultError("Invalid UPI QR code"), nil
	}
	out, err := json.MarshalIndent(qr, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR data: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
