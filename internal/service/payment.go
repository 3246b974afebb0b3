package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nicolasmmb/go-card-gateway/internal/acquirer"
	"github.com/nicolasmmb/go-card-gateway/internal/card"
	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
)

const (
	DEFAULT_ACQUIRER_LATENCY = 500 * time.Millisecond
	DEFAULT_ACQUIRER_TIMEOUT = 5 * time.Second

	MSG_PENDING = "Transaction is pending"
)

type PaymentService struct {
	repoTransaction core.TransactionStoreInterface
	selector        acquirer.Selector
	acquirer        acquirer.Acquirer
	logger          *slog.Logger
	now             func() time.Time

	latency time.Duration
	timeout time.Duration
}

type Option func(*PaymentService)

// WithLatency sets the simulated acquirer latency. Ignored when WithAcquirer is given.
func WithLatency(d time.Duration) Option {
	return func(ps *PaymentService) { ps.latency = d }
}

func WithTimeout(d time.Duration) Option {
	return func(ps *PaymentService) { ps.timeout = d }
}

func WithSelector(s acquirer.Selector) Option {
	return func(ps *PaymentService) { ps.selector = s }
}

func WithAcquirer(a acquirer.Acquirer) Option {
	return func(ps *PaymentService) { ps.acquirer = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(ps *PaymentService) { ps.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(ps *PaymentService) { ps.now = now }
}

func NewPaymentService(transactionRepository core.TransactionStoreInterface, opts ...Option) *PaymentService {
	ps := &PaymentService{
		repoTransaction: transactionRepository,
		selector:        acquirer.ParitySelector{},
		logger:          slog.Default(),
		now:             time.Now,
		latency:         DEFAULT_ACQUIRER_LATENCY,
		timeout:         DEFAULT_ACQUIRER_TIMEOUT,
	}
	for _, opt := range opts {
		opt(ps)
	}
	if ps.acquirer == nil {
		ps.acquirer = acquirer.NewSimulator(ps.latency)
	}
	return ps
}

// ProcessPayment validates the card, registers a pending transaction, routes it to an acquirer and
// records the outcome. domain.ErrInvalidCard is the only expected error; an acquirer timeout is a
// regular DENIED response.
func (ps *PaymentService) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error) {
	masked := card.Mask(req.CardNumber)

	if !card.IsValidLuhn(req.CardNumber) {
		ps.logger.Warn("[SV:Payment:Process:01] - Card number rejected", "card", masked, "merchant_id", req.MerchantID)
		return domain.PaymentResponse{}, domain.ErrInvalidCard
	}

	now := ps.now()
	tx := &domain.Transaction{
		ID:         uuid.NewString(),
		Status:     domain.StatusPending,
		Message:    MSG_PENDING,
		CardNumber: masked,
		Amount:     req.Amount,
		Currency:   req.Currency,
		MerchantID: req.MerchantID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := ps.repoTransaction.Put(ctx, tx.ID, tx); err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("registering pending transaction: %w", err)
	}
	ps.logger.Info("[SV:Payment:Process:02] - Transaction registered as pending", "transaction_id", tx.ID, "card", masked)

	acq := ps.selector.SelectAcquirer(card.BIN(req.CardNumber))
	status, message, routeErr := ps.routeToAcquirer(ctx, acq, req)

	tx.Status = status
	tx.Message = message
	tx.Acquirer = acq
	tx.UpdatedAt = ps.now()

	// the terminal write must land even if the caller went away
	if err := ps.repoTransaction.Put(context.WithoutCancel(ctx), tx.ID, tx); err != nil {
		return domain.PaymentResponse{}, fmt.Errorf("recording transaction %s: %w", tx.ID, err)
	}
	if routeErr != nil {
		ps.logger.Error("[SV:Payment:Process:03] - Acquirer call failed", "transaction_id", tx.ID, "acquirer", acq, "error", routeErr)
		return domain.PaymentResponse{}, routeErr
	}

	ps.logger.Info("[SV:Payment:Process:04] - Transaction processed",
		"transaction_id", tx.ID,
		"acquirer", acq,
		"status", status,
		"took", tx.UpdatedAt.Sub(tx.CreatedAt),
	)
	return domain.PaymentResponse{TransactionID: tx.ID, Status: status, Message: message}, nil
}

type acquirerOutcome struct {
	decision acquirer.Decision
	err      error
}

// routeToAcquirer races the acquirer call against the timeout. The losing side is discarded: a late
// acquirer answer lands in the buffered channel and is dropped, and its context is cancelled.
func (ps *PaymentService) routeToAcquirer(ctx context.Context, acq domain.AcquirerID, req domain.PaymentRequest) (domain.Status, string, error) {
	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan acquirerOutcome, 1)
	go func() {
		d, err := ps.acquirer.Authorize(callCtx, acquirer.Authorization{
			Acquirer:   acq,
			CardNumber: req.CardNumber,
			Amount:     req.Amount,
			Currency:   req.Currency,
			MerchantID: req.MerchantID,
		})
		result <- acquirerOutcome{decision: d, err: err}
	}()

	timeout := time.NewTimer(ps.timeout)
	defer timeout.Stop()

	noResponse := "No response from " + string(acq)

	select {
	case out := <-result:
		if out.err != nil {
			return domain.StatusDenied, noResponse, fmt.Errorf("authorizing with %s: %w", acq, out.err)
		}
		ps.logger.Debug("[SV:Payment:Route:01] - Acquirer answered",
			"acquirer", acq,
			"response_code", out.decision.ResponseCode,
			"stan", out.decision.STAN,
		)
		return out.decision.Status, "Processed by " + string(acq), nil
	case <-timeout.C:
		ps.logger.Warn("[SV:Payment:Route:02] - Acquirer timed out", "acquirer", acq, "timeout", ps.timeout)
		return domain.StatusDenied, noResponse, nil
	case <-ctx.Done():
		return domain.StatusDenied, noResponse, ctx.Err()
	}
}

func (ps *PaymentService) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	tx, err := ps.repoTransaction.Get(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("finding transaction %s: %w", transactionID, err)
	}
	return tx, nil
}
