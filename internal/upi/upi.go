package upi

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Currency is the only currency a UPI payment can be made in
const Currency = "INR"

var (
	// ErrInvalidAddress is returned when a payee address is not a valid VPA
	ErrInvalidAddress = errors.New("invalid UPI ID")
	// ErrInvalidAmount is returned when an amount is not a positive number
	ErrInvalidAmount = errors.New("invalid amount")
)

var vpaPattern = regexp.MustCompile(`^[\w.\-]+@[\w\-]+$`)

// ValidateAddress reports whether candidate is a virtual payment address (name@handle)
func ValidateAddress(candidate string) bool {
	return vpaPattern.MatchString(candidate)
}

// PaymentRequest is a payment to be handed to a UPI app
type PaymentRequest struct {
	PayeeAddress string `json:"upiId"`
	PayeeName    string `json:"payee"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Validate returns an error unless the request can be dispatched
func (r PaymentRequest) Validate() error {
	if !ValidateAddress(r.PayeeAddress) {
		return fmt.Errorf("%w: %q (e.g., name@upi)", ErrInvalidAddress, r.PayeeAddress)
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(r.Amount), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, r.Amount)
	}
	return nil
}

// BuildPaymentURL constructs the upi://pay URL for a request.
// The payee name and notes are percent-encoded; address and amount are used as given.
func BuildPaymentURL(r PaymentRequest) string {
	var sb strings.Builder
	sb.WriteString("upi://pay?pa=")
	sb.WriteString(r.PayeeAddress)
	sb.WriteString("&pn=")
	sb.WriteString(encodeComponent(r.PayeeName))
	sb.WriteString("&am=")
	sb.WriteString(r.Amount)
	sb.WriteString("&cu=")
	sb.WriteString(Currency)
	sb.WriteString("&tn=")
	sb.WriteString(encodeComponent(r.Notes))
	return sb.String()
}

// encodeComponent percent-encodes s the way UPI apps expect query values,
// leaving only the unreserved mark characters intact and encoding spaces as %20
func encodeComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
