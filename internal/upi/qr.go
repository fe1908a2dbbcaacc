package upi

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
)

// ParsedQR holds the payment fields decoded from a scanned UPI QR code
type ParsedQR struct {
	UPIID    string `json:"upiId"`
	Payee    string `json:"payee"`
	Amount   string `json:"amount"`
	Notes    string `json:"notes"`
	Currency string `json:"currency"`
}

// ToPaymentRequest pre-fills a payment request from the scanned fields
func (q ParsedQR) ToPaymentRequest() PaymentRequest {
	return PaymentRequest{
		PayeeAddress: q.UPIID,
		PayeeName:    q.Payee,
		Amount:       q.Amount,
		Currency:     q.Currency,
		Notes:        q.Notes,
	}
}

// ParseQR decodes a UPI QR payload of the form upi://pay?pa=..&pn=..&am=..&cu=..&tn=..
// It returns nil if the payload is not a URL or not a upi: URL. The payee address
// is not validated here.
func ParseQR(logger *log.Logger, payload string) *ParsedQR {
	u, err := url.Parse(payload)
	if err != nil {
		logger.Error("Error parsing QR code", "payload", payload, "error", err)
		return nil
	}
	if u.Scheme == "" {
		logger.Error("Error parsing QR code", "payload", payload, "error", "not a URL")
		return nil
	}
	if u.Scheme != "upi" {
		logger.Error("Error parsing QR code", "payload", payload, "error", "not a valid UPI QR code", "scheme", u.Scheme)
		return nil
	}

	params := queryParams(u.RawQuery)
	qr := &ParsedQR{
		UPIID:    params.Get("pa"),
		Payee:    params.Get("pn"),
		Amount:   params.Get("am"),
		Notes:    params.Get("tn"),
		Currency: params.Get("cu"),
	}
	if qr.Currency == "" {
		qr.Currency = Currency
	}

	logger.Debug("Parsed UPI QR code", "upi_id", qr.UPIID, "payee", qr.Payee, "amount", qr.Amount)
	return qr
}

// ParsePendingPayment extracts the JSON payment carried in the paymentData
// query parameter of a return deep link
func ParsePendingPayment(logger *log.Logger, rawURL string) (*PaymentRequest, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		logger.Error("Error parsing deep link", "url", rawURL, "error", err)
		return nil, false
	}
	data := queryParams(u.RawQuery).Get("paymentData")
	if data == "" {
		return nil, false
	}

	var req PaymentRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		logger.Error("Error parsing deep link payment data", "url", rawURL, "error", err)
		return nil, false
	}
	return &req, true
}

// queryParams splits a raw query on '&' only. url.ParseQuery drops any pair
// containing ';', which UPI notes and JSON payloads may legitimately hold.
// Values that fail to unescape are kept as written.
func queryParams(rawQuery string) url.Values {
	values := url.Values{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		values.Add(key, value)
	}
	return values
}
