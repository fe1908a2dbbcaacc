package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/lox/walletwise/internal/analyzer"
	"github.com/lox/walletwise/internal/commands"
	"github.com/lox/walletwise/internal/display"
	"github.com/lox/walletwise/internal/payment"
	"github.com/lox/walletwise/internal/types"
	"github.com/lox/walletwise/internal/upi"
)

type PayCmd struct {
	commands.LLMConfig

	UPIID    string `arg:"" name:"upi-id" help:"Payee UPI ID, e.g. name@upi"`
	Amount   string `arg:"" help:"Amount in rupees"`
	Payee    string `help:"Payee name"`
	Notes    string `help:"Payment note"`
	Category string `help:"Category to file the payment under" default:"Food"`
	Suggest  bool   `help:"Ask the language model to pick the category"`
}

func (c *PayCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()
	a.console = newConsole(os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := payment.Payment{
		Request: upi.PaymentRequest{
			PayeeAddress: c.UPIID,
			PayeeName:    c.Payee,
			Amount:       c.Amount,
			Notes:        c.Notes,
		},
		Category: c.Category,
	}
	if c.Suggest {
		p.Category = a.suggestCategory(ctx, c.LLMConfig, p)
	}
	return a.pay(ctx, p)
}

type ScanCmd struct {
	Payload  string `arg:"" help:"Text encoded in the QR code"`
	Amount   string `help:"Amount in rupees, when the code does not fix one"`
	Category string `help:"Category to file the payment under" default:"Food"`
}

func (c *ScanCmd) Run(cli *CLI) error {
	a, err := newApp(cli)
	if err != nil {
		return err
	}
	defer a.Close()
	a.console = newConsole(os.Stdin, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := payment.Prefill(a.logger, c.Payload)
	if err != nil {
		a.renderer.Error(payment.Message(err))
		return err
	}
	if c.Amount != "" {
		p.Request.Amount = c.Amount
	}
	if c.Category != "" {
		p.Category = c.Category
	}
	if p.Request.Amount == "" {
		amount, ok := a.console.ReadLine(ctx, "Amount (₹): ")
		if !ok {
			return ctx.Err()
		}
		p.Request.Amount = amount
	}
	return a.pay(ctx, p)
}

type OpenURLCmd struct {
	URL string `arg:"" help:"URL the app was opened with"`
}

func (c *OpenURLCmd) Run(cli *CLI) error {
	logger, err := commands.SetupLogger(os.Stderr, cli.LogLevel)
	if err != nil {
		return err
	}
	inbox, err := upi.NewInbox(inboxDir(cli.DataDir), nil, logger)
	if err != nil {
		return err
	}
	return inbox.Deliver(c.URL)
}

func (a *app) suggestCategory(ctx context.Context, config commands.LLMConfig, p payment.Payment) string {
	ag, err := commands.SetupAgent(config, a.logger)
	if err != nil {
		a.logger.Warn("Category suggestion unavailable", "error", err)
		return p.Category
	}
	category, err := analyzer.NewAnalyzer(ag, a.logger, nil, nil).SuggestCategory(ctx, p.NewTransaction())
	if err != nil {
		a.logger.Warn("Failed to suggest category", "error", err)
		return p.Category
	}
	return category
}

// pay hands p to a UPI app, waits for the user to come back and records the
// payment once they confirm it went through
func (a *app) pay(ctx context.Context, p payment.Payment) error {
	if !types.IsCategory(p.Category) {
		return fmt.Errorf("unknown category %q, expected one of: %s", p.Category, strings.Join(types.CategoryNames(), ", "))
	}

	session := payment.NewSession(upi.NewPlatformDispatcher(a.logger), a.db, a.logger)

	hub := upi.NewHub(a.logger)
	inbox, err := upi.NewInbox(inboxDir(a.dataDir), hub, a.logger)
	if err != nil {
		return err
	}
	returned := make(chan payment.Payment, 1)
	unsubscribe := session.Listen(hub, func(p payment.Payment) {
		select {
		case returned <- p:
		default:
		}
	})
	defer unsubscribe()

	if _, err := inbox.Discard(); err != nil {
		a.logger.Warn("Failed to clear deep link inbox", "error", err)
	}

	a.renderer.Payment(p.Request, p.Category)
	if err := session.Start(ctx, p); err != nil {
		a.renderer.Error(payment.Message(err))
		return err
	}

	// only links arriving after the handoff can be a reply to this payment
	listenCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := inbox.Run(listenCtx); err != nil {
			a.logger.Warn("Deep link listener stopped", "error", err)
		}
	}()
	a.renderer.Success("Opened your UPI app. Complete the payment there, then press Enter.")

	select {
	case <-returned:
		a.logger.Debug("Returned from UPI app")
	case _, ok := <-a.console.lines:
		if !ok {
			a.logger.Debug("Input closed before confirmation")
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	tx, err := session.Confirm(ctx, a.console.Confirm(ctx, "Was the payment successful?"))
	if err != nil {
		if errors.Is(err, payment.ErrSaveFailed) {
			a.renderer.Error(payment.Message(err))
		}
		return err
	}
	if tx == nil {
		a.renderer.Error("Payment not recorded")
		return nil
	}
	a.renderer.Success(fmt.Sprintf("Recorded %s to %s under %s", display.Rupees(tx.Amount), tx.Payee, tx.Category))
	return nil
}
