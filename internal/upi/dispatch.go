package upi

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

// Opener hands a URL to the default handler for its scheme
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Prober is implemented by openers that can check for a handler before opening
type Prober interface {
	CanOpen(ctx context.Context, url string) (bool, error)
}

// Launcher is a secondary, platform specific way of launching a URL,
// used when the prober reports no handler
type Launcher interface {
	Launch(ctx context.Context, url string) error
}

// Dispatcher launches payment URLs in an installed UPI app.
// It only reports whether the handoff worked, never whether the payment did.
type Dispatcher struct {
	opener   Opener
	fallback Launcher
	logger   *log.Logger
}

// NewDispatcher creates a dispatcher. fallback may be nil.
func NewDispatcher(opener Opener, fallback Launcher, logger *log.Logger) *Dispatcher {
	return &Dispatcher{
		opener:   opener,
		fallback: fallback,
		logger:   logger,
	}
}

// Dispatch validates the request and hands its URL to the OS.
//
// When the opener can pre-check, a missing handler falls through to the
// secondary launcher, whose failure is reported as false rather than an
// error. A failed pre-check is also reported as false. Errors from the primary open call are always returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req PaymentRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	paymentURL := BuildPaymentURL(req)

	prober, ok := d.opener.(Prober)
	if !ok {
		d.logger.Debug("Opening payment URL", "url", paymentURL)
		if err := d.opener.Open(ctx, paymentURL); err != nil {
			return false, fmt.Errorf("failed to open payment URL: %w", err)
		}
		return true, nil
	}

	canOpen, err := prober.CanOpen(ctx, paymentURL)
	if err != nil {
		d.logger.Error("Failed to check for a UPI handler", "error", err)
		return false, nil
	}
	if canOpen {
		d.logger.Debug("Opening payment URL", "url", paymentURL)
		if err := d.opener.Open(ctx, paymentURL); err != nil {
			return false, fmt.Errorf("failed to open payment URL: %w", err)
		}
		return true, nil
	}

	if d.fallback == nil {
		d.logger.Warn("No UPI handler available", "url", paymentURL)
		return false, nil
	}
	d.logger.Debug("No UPI handler found, launching intent", "url", paymentURL)
	if err := d.fallback.Launch(ctx, paymentURL); err != nil {
		d.logger.Error("Error launching intent", "error", err)
		return false, nil
	}
	return true, nil
}
