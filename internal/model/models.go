package model

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

type PaymentRequest struct {
	CardNumber string           `json:"cardNumber" validate:"notblank,len=16"`
	ExpiryDate string           `json:"expiryDate" validate:"notblank,expiry"`
	CVV        string           `json:"cvv" validate:"notblank,len=3"`
	Amount     *decimal.Decimal `json:"amount" validate:"required,gte=0.01"`
	Currency   string           `json:"currency" validate:"notblank"`
	MerchantID string           `json:"merchantId" validate:"notblank"`
}

type PaymentResponse struct {
	TransactionID string        `json:"transactionId"`
	Status        domain.Status `json:"status"`
	Message       string        `json:"message"`
}

type FieldError struct {
	Field   string
	Message string
}

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)

// messages by json field name, then by failing tag
var messages = map[string]map[string]string{
	"cardNumber": {"notblank": "Card number is required", "len": "Card number must be 16 digits"},
	"expiryDate": {"notblank": "Expiry date is required", "expiry": "Expiry date must be MM/YY"},
	"cvv":        {"notblank": "CVV is required", "len": "CVV must be 3 digits"},
	"amount":     {"required": "Amount is required", "gte": "Amount must be greater than 0"},
	"currency":   {"notblank": "Currency is required"},
	"merchantId": {"notblank": "Merchant ID is required"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("expiry", func(fl validator.FieldLevel) bool {
		return expiryPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate returns one entry per failing field, in declaration order.
func (r *PaymentRequest) Validate() []FieldError {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		// a present zero amount converts to 0.0 and trips required
		if fe.Field() == "amount" && tag == "required" && r.Amount != nil {
			tag = "gte"
		}
		msg, ok := messages[fe.Field()][tag]
		if !ok {
			msg = fe.Error()
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// ValidationMessage renders errors as "Validation failed: field - message; ...".
func ValidationMessage(errs []FieldError) string {
	var b strings.Builder
	b.WriteString("Validation failed: ")
	for _, e := range errs {
		b.WriteString(e.Field)
		b.WriteString(" - ")
		b.WriteString(e.Message)
		b.WriteString("; ")
	}
	return b.String()
}

// ToDomain must only be called after Validate returned no errors.
func (r *PaymentRequest) ToDomain() domain.PaymentRequest {
	return domain.PaymentRequest{
		CardNumber: r.CardNumber,
		ExpiryDate: r.ExpiryDate,
		CVV:        r.CVV,
		Amount:     *r.Amount,
		Currency:   r.Currency,
		MerchantID: r.MerchantID,
	}
}

func FromDomain(resp domain.PaymentResponse) PaymentResponse {
	return PaymentResponse{TransactionID: resp.TransactionID, Status: resp.Status, Message: resp.Message}
}
