package upi

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		candidate string
		valid     bool
	}{
		{"name@upi", true},
		{"john.doe@icici", true},
		{"shop-42@ok-axis", true},
		{"", false},
		{"noatsign", false},
		{"a@", false},
		{"@b", false},
		{"a@b.c", false},
		{"a b@upi", false},
		{"a@@b", false},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateAddress(tt.candidate))
		})
	}
}

func TestPaymentRequestValidate(t *testing.T) {
	valid := PaymentRequest{PayeeAddress: "a@b", PayeeName: "A", Amount: "50"}
	assert.NoError(t, valid.Validate())

	badAddress := valid
	badAddress.PayeeAddress = "nope"
	assert.ErrorIs(t, badAddress.Validate(), ErrInvalidAddress)

	for _, amount := range []string{"", "abc", "0", "-5"} {
		req := valid
		req.Amount = amount
		assert.ErrorIs(t, req.Validate(), ErrInvalidAmount, "amount %q", amount)
	}
}

func TestBuildPaymentURL(t *testing.T) {
	got := BuildPaymentURL(PaymentRequest{
		PayeeAddress: "a@b",
		PayeeName:    "A B",
		Amount:       "50",
		Notes:        "hi there",
	})

	assert.True(t, strings.HasPrefix(got, "upi://pay?"))
	assert.Contains(t, got, "pa=a@b")
	assert.Contains(t, got, "pn=A%20B")
	assert.Contains(t, got, "am=50")
	assert.Contains(t, got, "cu=INR")
	assert.Contains(t, got, "tn=hi%20there")
}

func TestBuildPaymentURLEncoding(t *testing.T) {
	got := BuildPaymentURL(PaymentRequest{
		PayeeAddress: "a@b",
		PayeeName:    "Tom & Jerry's",
		Amount:       "1.50",
		Notes:        "rent=100%",
	})
	assert.Equal(t, "upi://pay?pa=a@b&pn=Tom%20%26%20Jerry's&am=1.50&cu=INR&tn=rent%3D100%25", got)
}

func TestParseQR(t *testing.T) {
	logger := log.New(io.Discard)

	got := ParseQR(logger, "upi://pay?pa=a@b&pn=Shop&am=100&cu=INR&tn=hi")
	require.NotNil(t, got)
	assert.Equal(t, ParsedQR{UPIID: "a@b", Payee: "Shop", Amount: "100", Notes: "hi", Currency: "INR"}, *got)
}

func TestParseQRDefaults(t *testing.T) {
	logger := log.New(io.Discard)

	got := ParseQR(logger, "upi://pay?pn=Corner%20Store")
	require.NotNil(t, got)
	assert.Equal(t, "", got.UPIID)
	assert.Equal(t, "Corner Store", got.Payee)
	assert.Equal(t, "", got.Amount)
	assert.Equal(t, "", got.Notes)
	assert.Equal(t, "INR", got.Currency)
}

func TestParseQRRejects(t *testing.T) {
	logger := log.New(io.Discard)

	assert.Nil(t, ParseQR(logger, "https://example.com"))
	assert.Nil(t, ParseQR(logger, "not a url"))
	assert.Nil(t, ParseQR(logger, ""))
	assert.Nil(t, ParseQR(logger, "upi://pay?pa=%zz"+"\x7f"))
}

func TestParseQRKeepsSemicolons(t *testing.T) {
	logger := log.New(io.Discard)

	got := ParseQR(logger, "upi://pay?pa=shop@okaxis&pn=Shop&am=10&tn=tea;snacks")
	require.NotNil(t, got)
	assert.Equal(t, "tea;snacks", got.Notes)
	assert.Equal(t, "shop@okaxis", got.UPIID)
	assert.Equal(t, "10", got.Amount)
}

func TestQueryParams(t *testing.T) {
	tests := []struct {
		raw  string
		key  string
		want string
	}{
		{"tn=hi%20there", "tn", "hi there"},
		{"tn=hi+there", "tn", "hi there"},
		{"tn=a;b&pn=x", "tn", "a;b"},
		{"tn=first&tn=second", "tn", "first"},
		{"tn=100%", "tn", "100%"},
		{"&&tn", "tn", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, queryParams(tt.raw).Get(tt.key))
		})
	}
}

func TestParsedQRToPaymentRequest(t *testing.T) {
	qr := ParsedQR{UPIID: "a@b", Payee: "Shop", Amount: "100", Notes: "hi", Currency: "INR"}
	req := qr.ToPaymentRequest()
	assert.Equal(t, "a@b", req.PayeeAddress)
	assert.Equal(t, "Shop", req.PayeeName)
	assert.NoError(t, req.Validate())
}

func TestParsePendingPayment(t *testing.T) {
	logger := log.New(io.Discard)

	req, ok := ParsePendingPayment(logger, `walletwise://payments?paymentData=%7B%22upiId%22%3A%22a%40b%22%2C%22payee%22%3A%22Shop%22%2C%22amount%22%3A%2210%22%7D`)
	require.True(t, ok)
	assert.Equal(t, "a@b", req.PayeeAddress)
	assert.Equal(t, "Shop", req.PayeeName)
	assert.Equal(t, "10", req.Amount)

	req, ok = ParsePendingPayment(logger, `walletwise://payments?paymentData={"upiId":"a@b","amount":"10","notes":"tea;snacks"}`)
	require.True(t, ok)
	assert.Equal(t, "tea;snacks", req.Notes)

	_, ok = ParsePendingPayment(logger, "walletwise://payments")
	assert.False(t, ok)

	_, ok = ParsePendingPayment(logger, "walletwise://payments?paymentData=notjson")
	assert.False(t, ok)
}
