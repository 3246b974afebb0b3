package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	json "github.com/json-iterator/go"

	"github.com/nicolasmmb/go-card-gateway/internal/core"
	"github.com/nicolasmmb/go-card-gateway/internal/domain"
	"github.com/nicolasmmb/go-card-gateway/internal/middleware"
	"github.com/nicolasmmb/go-card-gateway/internal/model"
)

const (
	ROUTE_PAYMENTS     = "/api/payments"
	ROUTE_TRANSACTION  = "/api/payments/{transactionId}"
	ROUTE_HEALTH_CHECK = "/health"

	MSG_INVALID_CARD   = "Invalid card number"
	MSG_MALFORMED_BODY = "malformed JSON"
)

type paymentProcessor interface {
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error)
	GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

type healthReporter interface {
	Healthy() bool
}

type paymentHandler struct {
	Svc    paymentProcessor
	Health healthReporter
	logger *slog.Logger
}

func NewPaymentHandler(svc paymentProcessor, health healthReporter, logger *slog.Logger) *paymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &paymentHandler{Svc: svc, Health: health, logger: logger}
}

func Routes(handler *paymentHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.NewStructuredLogger(handler.logger))
	r.Use(chimw.Recoverer)

	r.Post(ROUTE_PAYMENTS, handler.ProcessPayment)
	r.Get(ROUTE_TRANSACTION, handler.GetTransaction)
	r.Get(ROUTE_HEALTH_CHECK, handler.HealthCheck)
	return r
}

func (h *paymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req model.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("[RT:Payment:Process:01] - Undecodable request body",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		h.writeDenied(w, http.StatusBadRequest, model.ValidationMessage([]model.FieldError{{Field: "body", Message: MSG_MALFORMED_BODY}}))
		return
	}

	if errs := req.Validate(); len(errs) > 0 {
		h.writeDenied(w, http.StatusBadRequest, model.ValidationMessage(errs))
		return
	}

	resp, err := h.Svc.ProcessPayment(r.Context(), req.ToDomain())
	switch {
	case errors.Is(err, domain.ErrInvalidCard):
		h.writeDenied(w, http.StatusBadRequest, MSG_INVALID_CARD)
		return
	case err != nil:
		h.logger.Error("[RT:Payment:Process:02] - Payment processing failed",
			"request_id", middleware.GetRequestID(r.Context()), "error", err)
		h.writeDenied(w, http.StatusInternalServerError, "An error occurred: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, model.FromDomain(resp))
}

func (h *paymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	tx, err := h.Svc.GetTransaction(r.Context(), transactionID)
	if err != nil {
		if errors.Is(err, core.ErrTransactionNotFound) {
			http.Error(w, "Transaction not found", http.StatusNotFound)
			return
		}
		h.logger.Error("[RT:Payment:Get:01] - Failed to read transaction", "transaction_id", transactionID, "error", err)
		http.Error(w, "Failed to get transaction", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, tx)
}

type healthResponse struct {
	Status string `json:"status"`
}

func (h *paymentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil && !h.Health.Healthy() {
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "store_unreachable"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *paymentHandler) writeDenied(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.PaymentResponse{Status: domain.StatusDenied, Message: message})
}

func (h *paymentHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("[RT:Response:Encode:01] - Failed to encode response", "error", err)
	}
}
