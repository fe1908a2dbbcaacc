package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lox/walletwise/internal/db"
	"github.com/lox/walletwise/internal/types"
)

type HistoryCmd struct {
	Limit int `help:"Maximum number of payments to show" default:"50"`
	Days  int `help:"Only show payments from the last N days (0 = no limit)" default:"0"`
}

func (c *HistoryCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()

	var txs []types.Transaction
	if c.Days > 0 {
		txs, err = recentTransactions(context.Background(), a.db, c.Days)
		if c.Limit > 0 && len(txs) > c.Limit {
			txs = txs[:c.Limit]
		}
	} else {
		txs, err = a.db.GetTransactions(context.Background(), c.Limit)
	}
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}

	a.renderer.Transactions(txs)
	return nil
}

type SummaryCmd struct {
	Days int `help:"Only include payments from the last N days (0 = all time)" default:"0"`
}

func (c *SummaryCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	title := "Spending by category"
	totals, err := a.db.GetTransactionsByCategory(ctx)
	if c.Days > 0 {
		now := time.Now()
		title = fmt.Sprintf("Spending by category (last %d days)", c.Days)
		totals, err = a.db.GetCategorySpendingByPeriod(ctx, now.AddDate(0, 0, -c.Days), now)
	}
	if err != nil {
		return fmt.Errorf("failed to get category spending: %w", err)
	}
	a.renderer.CategoryTotals(title, totals)
	fmt.Println()

	months, err := a.db.GetMonthlySpending(ctx)
	if err != nil {
		return fmt.Errorf("failed to get monthly spending: %w", err)
	}
	a.renderer.MonthlyTotals(months)
	return nil
}

// recentTransactions loads payments from the last days days, or every stored
// payment when days is zero, newest first
func recentTransactions(ctx context.Context, store *db.DB, days int) ([]types.Transaction, error) {
	if days > 0 {
		now := time.Now()
		return store.GetTransactionsBetween(ctx, now.AddDate(0, 0, -days), now)
	}
	count, err := store.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return store.GetTransactions(ctx, count)
}
