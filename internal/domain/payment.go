package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidCard = errors.New("invalid card number")

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusDenied   Status = "DENIED"
)

// StatusForLastDigit approves even digits and denies odd ones.
func StatusForLastDigit(d byte) Status {
	if (d-'0')%2 == 0 {
		return StatusApproved
	}
	return StatusDenied
}

type AcquirerID string

const (
	AcquirerA AcquirerID = "Acquirer A"
	AcquirerB AcquirerID = "Acquirer B"
)

// PaymentRequest has already passed field validation in the transport layer.
type PaymentRequest struct {
	CardNumber string
	ExpiryDate string // MM/YY
	CVV        string
	Amount     decimal.Decimal
	Currency   string
	MerchantID string
}

type PaymentResponse struct {
	TransactionID string
	Status        Status
	Message       string
}

// Transaction is the stored outcome of a payment. CardNumber holds the masked PAN only.
type Transaction struct {
	ID         string          `msgpack:"id" json:"transactionId"`
	Status     Status          `msgpack:"status" json:"status"`
	Message    string          `msgpack:"message" json:"message"`
	Acquirer   AcquirerID      `msgpack:"acquirer" json:"acquirer,omitempty"`
	CardNumber string          `msgpack:"card" json:"cardNumber"`
	Amount     decimal.Decimal `msgpack:"amount" json:"amount"`
	Currency   string          `msgpack:"currency" json:"currency"`
	MerchantID string          `msgpack:"merchant_id" json:"merchantId"`
	CreatedAt  time.Time       `msgpack:"created_at" json:"createdAt"`
	UpdatedAt  time.Time       `msgpack:"updated_at" json:"updatedAt"`
}

func (t *Transaction) Response() PaymentResponse {
	return PaymentResponse{TransactionID: t.ID, Status: t.Status, Message: t.Message}
}
