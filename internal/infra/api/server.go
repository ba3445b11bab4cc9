package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/logging"
)

const (
	SignatureHeader = "X-Webhook-Signature"
	maxBodyBytes    = 1 << 20
)

// GatewayLookup resolves a provider id to its live gateway. It must never
// construct gateways.
type GatewayLookup interface {
	GetGateway(providerID string) (adapter.PaymentGateway, bool)
}

// Server exposes the gateways of a registry over JSON.
type Server struct {
	gateways GatewayLookup
	log      *zerolog.Logger
	timeout  time.Duration
}

func NewServer(gateways GatewayLookup, timeout time.Duration, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "api").Logger()
	return &Server{gateways: gateways, log: &l, timeout: timeout}
}

// Register mounts the v1 routes on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/v1/providers/{providerID}", func(r chi.Router) {
		r.Use(s.withGateway)
		if s.timeout > 0 {
			r.Use(Timeout(s.timeout))
		}

		r.Post("/payment-intents", s.createPaymentIntent)
		r.Get("/payment-intents/{intentID}", s.getPaymentIntent)
		r.Post("/payment-intents/{intentID}/confirm", s.confirmPaymentIntent)
		r.Post("/payment-intents/{intentID}/cancel", s.cancelPaymentIntent)
		r.Get("/payment-intents/{intentID}/transactions", s.listTransactions)

		r.Get("/transactions/{transactionID}", s.getTransaction)
		r.Post("/transactions/{transactionID}/refunds", s.refundPayment)

		r.Post("/subscriptions", s.createSubscription)
		r.Get("/subscriptions/{subscriptionID}", s.getSubscription)
		r.Patch("/subscriptions/{subscriptionID}", s.updateSubscription)
		r.Post("/subscriptions/{subscriptionID}/cancel", s.cancelSubscription)
		r.Post("/subscriptions/{subscriptionID}/pause", s.pauseSubscription)
		r.Post("/subscriptions/{subscriptionID}/resume", s.resumeSubscription)

		r.Get("/users/{userID}/payment-methods", s.listPaymentMethods)
		r.Post("/users/{userID}/payment-methods", s.createPaymentMethod)
		r.Delete("/users/{userID}/payment-methods/{methodID}", s.deletePaymentMethod)
		r.Put("/users/{userID}/payment-methods/{methodID}/default", s.setDefaultPaymentMethod)

		r.Post("/webhooks", s.handleWebhook)
	})
}

type gatewayKey struct{}

func (s *Server) withGateway(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "providerID")
		gw, ok := s.gateways.GetGateway(id)
		if !ok {
			s.writeError(w, r, domain.ValidationError(id, domain.CodeProviderNotFound, "provider %s is not registered", id))
			return
		}
		ctx := logging.WithProviderID(r.Context(), id)
		ctx = context.WithValue(ctx, gatewayKey{}, gw)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func gatewayFrom(r *http.Request) adapter.PaymentGateway {
	return r.Context().Value(gatewayKey{}).(adapter.PaymentGateway)
}

func (s *Server) logger(r *http.Request) *zerolog.Logger {
	return logging.With(r.Context(), s.log)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return domain.ValidationError(chi.URLParam(r, "providerID"), domain.CodeInvalidPayload, "invalid request body: %v", err)
	}
	return nil
}

// ---- payment intents ----

func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePaymentIntentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := logging.WithUserID(r.Context(), req.Metadata.UserID)
	pi, err := gatewayFrom(r).CreatePaymentIntent(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pi)
}

func (s *Server) getPaymentIntent(w http.ResponseWriter, r *http.Request) {
	pi, err := gatewayFrom(r).GetPaymentIntent(r.Context(), chi.URLParam(r, "intentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

type confirmRequest struct {
	PaymentMethodID string `json:"payment_method_id"`
}

func (s *Server) confirmPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	pi, err := gatewayFrom(r).ConfirmPaymentIntent(r.Context(), chi.URLParam(r, "intentID"), req.PaymentMethodID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

func (s *Server) cancelPaymentIntent(w http.ResponseWriter, r *http.Request) {
	pi, err := gatewayFrom(r).CancelPaymentIntent(r.Context(), chi.URLParam(r, "intentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pi)
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := gatewayFrom(r).ListTransactions(r.Context(), chi.URLParam(r, "intentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": txns})
}

// ---- transactions ----

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	t, err := gatewayFrom(r).GetTransaction(r.Context(), chi.URLParam(r, "transactionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type refundRequest struct {
	Amount *int64 `json:"amount,omitempty"`
}

func (s *Server) refundPayment(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := gatewayFrom(r).RefundPayment(r.Context(), chi.URLParam(r, "transactionID"), req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// ---- subscriptions ----

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req model.CreateSubscriptionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ctx := logging.WithUserID(r.Context(), req.UserID)
	sub, err := gatewayFrom(r).CreateSubscription(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := gatewayFrom(r).GetSubscription(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var upd model.SubscriptionUpdate
	if err := decode(r, &upd); err != nil {
		s.writeError(w, r, err)
		return
	}
	sub, err := gatewayFrom(r).UpdateSubscription(r.Context(), chi.URLParam(r, "subscriptionID"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

type cancelSubscriptionRequest struct {
	AtPeriodEnd bool `json:"at_period_end"`
}

func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req cancelSubscriptionRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sub, err := gatewayFrom(r).CancelSubscription(r.Context(), chi.URLParam(r, "subscriptionID"), req.AtPeriodEnd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) pauseSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := gatewayFrom(r).PauseSubscription(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) resumeSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := gatewayFrom(r).ResumeSubscription(r.Context(), chi.URLParam(r, "subscriptionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ---- payment methods ----

func (s *Server) listPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := gatewayFrom(r).ListPaymentMethods(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": methods})
}

func (s *Server) createPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var data model.PaymentMethodData
	if err := decode(r, &data); err != nil {
		s.writeError(w, r, err)
		return
	}
	userID := chi.URLParam(r, "userID")
	pm, err := gatewayFrom(r).CreatePaymentMethod(logging.WithUserID(r.Context(), userID), userID, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, pm)
}

// deletePaymentMethod only deletes methods listed under the path's user.
func (s *Server) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	gw := gatewayFrom(r)
	userID, methodID := chi.URLParam(r, "userID"), chi.URLParam(r, "methodID")
	methods, err := gw.ListPaymentMethods(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	owned := false
	for _, m := range methods {
		if m.ID == methodID {
			owned = true
			break
		}
	}
	if !owned {
		s.writeError(w, r, domain.ValidationError(gw.Provider().ID, domain.CodePaymentMethodNotFound,
			"payment method %s not found", methodID))
		return
	}
	if err := gw.DeletePaymentMethod(r.Context(), methodID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	pm, err := gatewayFrom(r).SetDefaultPaymentMethod(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "methodID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pm)
}

// ---- webhooks ----

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, domain.ValidationError(chi.URLParam(r, "providerID"), domain.CodeInvalidPayload, "read body: %v", err))
		return
	}
	res, err := gatewayFrom(r).HandleWebhook(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
