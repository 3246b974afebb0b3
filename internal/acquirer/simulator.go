package acquirer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/moov-io/iso8583"
	"github.com/moov-io/iso8583/specs"
	"github.com/shopspring/decimal"

	"github.com/nicolasmmb/go-card-gateway/internal/card"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

const (
	mtiAuthorizationRequest  = "0100"
	mtiAuthorizationResponse = "0110"
	processingCodePurchase   = "000000"

	ResponseCodeApproved   = "00"
	ResponseCodeDoNotHonor = "05"

	// field 4 is n12 in minor units
	maxMinorAmount = 999_999_999_999
)

// ErrNoResponse is returned when the acquirer answer carries no usable decision.
var ErrNoResponse = errors.New("acquirer returned no usable response")

type Authorization struct {
	Acquirer   domain.AcquirerID
	CardNumber string
	Amount     decimal.Decimal
	Currency   string
	MerchantID string
}

type Decision struct {
	Acquirer     domain.AcquirerID
	Status       domain.Status
	ResponseCode string
	STAN         int
}

// Acquirer authorizes a payment. Implementations must return promptly once ctx is done.
type Acquirer interface {
	Authorize(ctx context.Context, auth Authorization) (Decision, error)
}

// Simulator stands in for a real acquirer: it exchanges ISO 8583 0100/0110 messages in process
// after a fixed latency, approving even last digits and declining odd ones.
type Simulator struct {
	latency time.Duration
	stan    atomic.Uint32
	now     func() time.Time
}

func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{latency: latency, now: time.Now}
}

func (s *Simulator) Authorize(ctx context.Context, auth Authorization) (Decision, error) {
	stan := int(s.stan.Add(1) % 1_000_000)

	packed, err := s.authorizationRequest(auth, stan)
	if err != nil {
		return Decision{}, err
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	case <-timer.C:
	}

	answer, err := respond(packed)
	if err != nil {
		return Decision{}, err
	}

	d, err := decodeResponse(answer)
	if err != nil {
		return Decision{}, err
	}
	d.Acquirer = auth.Acquirer
	return d, nil
}

func (s *Simulator) authorizationRequest(auth Authorization, stan int) ([]byte, error) {
	msg := iso8583.NewMessage(specs.Spec87ASCII)
	msg.MTI(mtiAuthorizationRequest)

	fields := map[int]string{
		2:  auth.CardNumber,
		3:  processingCodePurchase,
		7:  s.now().UTC().Format("0102150405"),
		11: fmt.Sprintf("%06d", stan),
	}
	// amounts that do not fit n12 travel without field 4; the decision does not depend on it
	if minor, ok := minorUnits(auth.Amount); ok {
		fields[4] = fmt.Sprintf("%012d", minor)
	}
	for id, v := range fields {
		if err := msg.Field(id, v); err != nil {
			return nil, fmt.Errorf("setting field %d: %w", id, err)
		}
	}

	b, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("packing authorization request: %w", err)
	}
	return b, nil
}

func minorUnits(amount decimal.Decimal) (int64, bool) {
	minor := amount.Shift(2).Round(0)
	if minor.IsNegative() || minor.GreaterThan(decimal.NewFromInt(maxMinorAmount)) {
		return 0, false
	}
	return minor.IntPart(), true
}

// respond plays the acquirer side of the exchange.
func respond(packed []byte) ([]byte, error) {
	req := iso8583.NewMessage(specs.Spec87ASCII)
	if err := req.Unpack(packed); err != nil {
		return nil, fmt.Errorf("unpacking authorization request: %w", err)
	}

	pan, err := req.GetString(2)
	if err != nil || pan == "" {
		return nil, fmt.Errorf("reading pan: %w", ErrNoResponse)
	}
	stan, err := req.GetString(11)
	if err != nil {
		return nil, fmt.Errorf("reading stan: %w", err)
	}

	code := ResponseCodeDoNotHonor
	if domain.StatusForLastDigit(card.LastDigit(pan)) == domain.StatusApproved {
		code = ResponseCodeApproved
	}

	resp := iso8583.NewMessage(specs.Spec87ASCII)
	resp.MTI(mtiAuthorizationResponse)
	if err := resp.Field(11, stan); err != nil {
		return nil, fmt.Errorf("setting stan: %w", err)
	}
	if err := resp.Field(39, code); err != nil {
		return nil, fmt.Errorf("setting response code: %w", err)
	}

	b, err := resp.Pack()
	if err != nil {
		return nil, fmt.Errorf("packing authorization response: %w", err)
	}
	return b, nil
}

func decodeResponse(packed []byte) (Decision, error) {
	msg := iso8583.NewMessage(specs.Spec87ASCII)
	if err := msg.Unpack(packed); err != nil {
		return Decision{}, fmt.Errorf("unpacking authorization response: %w", err)
	}

	mti, err := msg.GetMTI()
	if err != nil || mti != mtiAuthorizationResponse {
		return Decision{}, fmt.Errorf("unexpected mti %q: %w", mti, ErrNoResponse)
	}

	code, err := msg.GetString(39)
	if err != nil {
		return Decision{}, fmt.Errorf("reading response code: %w", err)
	}
	rawStan, err := msg.GetString(11)
	if err != nil {
		return Decision{}, fmt.Errorf("reading stan: %w", err)
	}
	stan, _ := strconv.Atoi(rawStan)

	d := Decision{ResponseCode: code, STAN: stan}
	switch code {
	case ResponseCodeApproved:
		d.Status = domain.StatusApproved
	case ResponseCodeDoNotHonor:
		d.Status = domain.StatusDenied
	default:
		return Decision{}, fmt.Errorf("response code %q: %w", code, ErrNoResponse)
	}
	return d, nil
}
