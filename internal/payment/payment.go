package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/walletwise/internal/types"
	"github.com/lox/walletwise/internal/upi"
)

var (
	ErrNoUPIApp         = errors.New("no UPI app available to handle the payment")
	ErrInvalidQR        = errors.New("invalid UPI QR code")
	ErrNoPendingPayment = errors.New("no payment is awaiting confirmation")
	ErrSaveFailed       = errors.New("failed to record transaction")
)

// Message returns the text shown to the user for a payment error
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoUPIApp):
		return "Failed to initiate payment. Please check if you have a UPI app installed."
	case errors.Is(err, ErrInvalidQR):
		return "Invalid UPI QR code. Please try again."
	case errors.Is(err, upi.ErrInvalidAddress):
		return "Please enter a valid UPI ID (e.g., name@upi)"
	case errors.Is(err, upi.ErrInvalidAmount):
		return "Please enter a valid amount"
	case errors.Is(err, ErrSaveFailed):
		return "Payment was successful but we couldn't save the record. Please try again."
	default:
		return "An error occurred while processing your payment. Please try again."
	}
}

// Payment is a payment being made, with the category it will be filed under
type Payment struct {
	Request  upi.PaymentRequest
	Category string
}

// NewTransaction converts a confirmed payment into a record for the store
func (p Payment) NewTransaction() types.NewTransaction {
	category := p.Category
	if category == "" {
		category = types.CategoryFood
	}
	return types.NewTransaction{
		UPIID:    p.Request.PayeeAddress,
		Payee:    p.Request.PayeeName,
		Amount:   p.Request.Amount,
		Notes:    p.Request.Notes,
		Category: category,
	}
}

// Dispatcher hands a payment to a UPI app
type Dispatcher interface {
	Dispatch(ctx context.Context, req upi.PaymentRequest) (bool, error)
}

// Store persists confirmed payments
type Store interface {
	SaveTransaction(ctx context.Context, nt types.NewTransaction) (*types.Transaction, error)
}

// Session tracks one payment from dispatch through confirmation. The UPI app
// may never call back, so a pending payment is only recorded through Confirm.
type Session struct {
	mu         sync.Mutex
	dispatcher Dispatcher
	store      Store
	logger     *log.Logger
	pending    *Payment
}

func NewSession(dispatcher Dispatcher, store Store, logger *log.Logger) *Session {
	return &Session{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// Prefill turns a scanned QR payload into a payment ready for review
func Prefill(logger *log.Logger, payload string) (Payment, error) {
	qr := upi.ParseQR(logger, payload)
	if qr == nil {
		return Payment{}, ErrInvalidQR
	}
	return Payment{Request: qr.ToPaymentRequest(), Category: types.CategoryFood}, nil
}

// Start validates the payment and hands it to a UPI app. On success the
// payment becomes pending until confirmed.
func (s *Session) Start(ctx context.Context, p Payment) error {
	if err := p.Request.Validate(); err != nil {
		return err
	}

	ok, err := s.dispatcher.Dispatch(ctx, p.Request)
	if err != nil {
		s.logger.Error("Payment error", "error", err)
		return fmt.Errorf("failed to dispatch payment: %w", err)
	}
	if !ok {
		return ErrNoUPIApp
	}

	s.mu.Lock()
	s.pending = &p
	s.mu.Unlock()

	s.logger.Info("Payment handed to UPI app", "upi_id", p.Request.PayeeAddress, "amount", p.Request.Amount)
	return nil
}

// HandleDeepLink processes a URL the app was re-opened with. A paymentData
// payload replaces the pending payment. Returns the payment awaiting
// confirmation, if any.
func (s *Session) HandleDeepLink(rawURL string) (*Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req, ok := upi.ParsePendingPayment(s.logger, rawURL); ok {
		s.pending = &Payment{Request: *req, Category: types.CategoryFood}
		s.logger.Debug("Adopted payment from deep link", "upi_id", req.PayeeAddress)
	}
	if s.pending == nil {
		s.logger.Debug("Ignoring deep link with no pending payment", "url", rawURL)
		return nil, false
	}
	p := *s.pending
	return &p, true
}

// Listen feeds deep links from the hub into the session, calling prompt for
// each one that needs confirmation. The returned func releases the subscription.
func (s *Session) Listen(hub *upi.Hub, prompt func(Payment)) (unsubscribe func()) {
	return hub.Subscribe(func(url string) {
		if p, ok := s.HandleDeepLink(url); ok {
			prompt(*p)
		}
	})
}

// Pending returns the payment awaiting confirmation
func (s *Session) Pending() (*Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, false
	}
	p := *s.pending
	return &p, true
}

// Confirm records the pending payment if the user says it went through.
// Either way the pending payment is cleared.
func (s *Session) Confirm(ctx context.Context, successful bool) (*types.Transaction, error) {
	s.mu.Lock()
	p := s.pending
	s.pending = nil
	s.mu.Unlock()

	if p == nil {
		return nil, ErrNoPendingPayment
	}
	if !successful {
		s.logger.Info("Payment not confirmed, discarding", "upi_id", p.Request.PayeeAddress)
		return nil, nil
	}

	tx, err := s.store.SaveTransaction(ctx, p.NewTransaction())
	if err != nil {
		s.logger.Error("Error saving transaction", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return tx, nil
}
