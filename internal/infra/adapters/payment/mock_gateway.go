package payment

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/logging"
	"carepay-gateway/internal/infra/metrics"
)

var (
	_ adapter.PaymentGateway = (*MockGateway)(nil)
	_ adapter.PeriodAdvancer = (*MockGateway)(nil)
)

type MockOptions struct {
	Outcome      Outcome       // nil = RandomOutcome(DefaultSuccessRate, 0)
	InitDelay    time.Duration // simulated handshake
	ConfirmDelay time.Duration // simulated provider round trip
	Now          func() time.Time
	Logger       *zerolog.Logger
	Dev          bool // log unredacted PII
}

// MockGateway is the in-memory reference adapter. It stands in for any real
// provider and keeps intents, transactions, subscriptions and payment
// methods in per-instance maps, each behind its own mutex.
// Lock order: intentsMu before txnsMu, intentsMu before methodsMu.
type MockGateway struct {
	Base

	log          *zerolog.Logger
	outcome      Outcome
	initDelay    time.Duration
	confirmDelay time.Duration
	now          func() time.Time
	dev          bool

	initMu sync.Mutex

	intentsMu sync.Mutex
	intents   map[string]*model.PaymentIntent

	txnsMu       sync.Mutex
	transactions map[string]*model.PaymentTransaction

	subsMu        sync.Mutex
	subscriptions map[string]*model.Subscription

	methodsMu sync.Mutex
	methods   map[string]*model.PaymentMethod
}

func NewMockGateway(provider model.PaymentProvider, opts MockOptions) *MockGateway {
	if opts.Outcome == nil {
		opts.Outcome = RandomOutcome(DefaultSuccessRate, 0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	base := opts.Logger
	if base == nil {
		base = logging.Nop()
	}
	l := base.With().Str("component", "MockGateway").Str("provider_id", provider.ID).Logger()
	return &MockGateway{
		Base:          NewBase(provider),
		log:           &l,
		outcome:       opts.Outcome,
		initDelay:     opts.InitDelay,
		confirmDelay:  opts.ConfirmDelay,
		now:           opts.Now,
		dev:           opts.Dev,
		intents:       make(map[string]*model.PaymentIntent),
		transactions:  make(map[string]*model.PaymentTransaction),
		subscriptions: make(map[string]*model.Subscription),
		methods:       make(map[string]*model.PaymentMethod),
	}
}

func newID(prefix string) string {
	return prefix + "_" + strings.ToLower(ulid.Make().String())
}

// Initialize simulates the provider handshake. Repeated calls are no-ops.
func (g *MockGateway) Initialize(ctx context.Context) error {
	g.initMu.Lock()
	defer g.initMu.Unlock()
	if g.IsInitialized() {
		return nil
	}
	if !g.provider.Active {
		return domain.ValidationError(g.ProviderID(), domain.CodeProviderInactive,
			"provider %s is not active", g.ProviderID())
	}
	if err := sleepCtx(ctx, g.initDelay); err != nil {
		return domain.NetworkError(g.ProviderID(), domain.CodeTimeout, "initialize: %v", err)
	}
	g.markInitialized()
	g.log.Info().
		Str("type", string(g.provider.Type)).
		Str("environment", g.provider.Config.Environment).
		Strs("currencies", g.provider.SupportedCurrencies).
		Msg("gateway initialized")
	return nil
}

func (g *MockGateway) CreatePaymentIntent(ctx context.Context, req model.CreatePaymentIntentRequest) (*model.PaymentIntent, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	// amount first: a bad amount wins over a bad currency
	if err := g.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := g.ValidateCurrency(req.Currency); err != nil {
		return nil, err
	}
	if err := g.validateProvider(req.ProviderID); err != nil {
		return nil, err
	}
	if err := g.validateUser(req.Metadata.UserID); err != nil {
		return nil, err
	}

	now := g.now()
	pi := &model.PaymentIntent{
		ID:         newID("pi_" + g.ProviderID()),
		Amount:     req.Amount,
		Currency:   normCurrency(req.Currency),
		ProviderID: g.ProviderID(),
		Status:     model.PaymentStatusPending,
		Metadata:   req.Metadata.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	g.intentsMu.Lock()
	g.intents[pi.ID] = pi
	out := pi.Clone()
	g.intentsMu.Unlock()

	metrics.IncPayment(g.ProviderID(), string(model.PaymentStatusPending))
	logging.With(ctx, g.log).Debug().
		Str("intent_id", pi.ID).
		Int64("amount", pi.Amount).
		Str("currency", pi.Currency).
		Msg("payment intent created")
	return out, nil
}

// ConfirmPaymentIntent moves a pending intent through processing to
// succeeded or failed. Exactly one charge transaction is created per
// successful confirmation; terminal intents are rejected.
func (g *MockGateway) ConfirmPaymentIntent(ctx context.Context, intentID, paymentMethodID string) (*model.PaymentIntent, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	defer logging.TraceDuration(g.log, "MockGateway.ConfirmPaymentIntent")()
	started := time.Now()

	g.intentsMu.Lock()
	pi, ok := g.intents[intentID]
	if !ok {
		g.intentsMu.Unlock()
		return nil, g.intentNotFound(intentID)
	}
	switch {
	case pi.Status == model.PaymentStatusProcessing:
		g.intentsMu.Unlock()
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeIntentProcessing,
			"payment intent %s is already being confirmed", intentID)
	case pi.Status.IsTerminal():
		status := pi.Status
		g.intentsMu.Unlock()
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeIntentAlreadyFinalized,
			"payment intent %s is %s", intentID, status).WithDetail("status", string(status))
	}
	if paymentMethodID != "" && !g.ownsMethod(pi.Metadata.UserID, paymentMethodID) {
		g.intentsMu.Unlock()
		return nil, g.methodNotFound(paymentMethodID)
	}
	pi.Status = model.PaymentStatusProcessing
	if paymentMethodID != "" {
		pi.PaymentMethodID = paymentMethodID
	}
	pi.UpdatedAt = g.now()
	snapshot := pi.Clone()
	g.intentsMu.Unlock()

	if err := sleepCtx(ctx, g.confirmDelay); err != nil {
		g.intentsMu.Lock()
		if pi.Status == model.PaymentStatusProcessing {
			pi.Status = model.PaymentStatusPending
			pi.UpdatedAt = g.now()
		}
		g.intentsMu.Unlock()
		metrics.ObserveConfirm(g.ProviderID(), "timeout", time.Since(started))
		return nil, domain.NetworkError(g.ProviderID(), domain.CodeTimeout,
			"confirm %s: %v", intentID, err)
	}

	succeeded := g.outcome.Succeeds(snapshot)

	g.intentsMu.Lock()
	defer g.intentsMu.Unlock()
	if pi.Status != model.PaymentStatusProcessing {
		// cancelled while the provider call was in flight
		return pi.Clone(), nil
	}
	now := g.now()
	pi.UpdatedAt = now
	if !succeeded {
		pi.Status = model.PaymentStatusFailed
		metrics.IncPayment(g.ProviderID(), string(model.PaymentStatusFailed))
		metrics.ObserveConfirm(g.ProviderID(), "failed", time.Since(started))
		logging.With(ctx, g.log).Info().Str("intent_id", pi.ID).Msg("payment intent failed")
		return pi.Clone(), nil
	}

	txn := &model.PaymentTransaction{
		ID:                    newID("txn"),
		PaymentIntentID:       pi.ID,
		Type:                  model.TransactionTypeCharge,
		Amount:                pi.Amount,
		Currency:              pi.Currency,
		Status:                model.PaymentStatusSucceeded,
		ProviderTransactionID: g.ProviderID() + "_" + uuid.NewString(),
		Fees:                  model.ChargeFees(pi.Amount),
		Metadata:              map[string]string{"user_id": pi.Metadata.UserID},
		CreatedAt:             now,
		ProcessedAt:           now,
	}
	if pi.PaymentMethodID != "" {
		txn.Metadata["payment_method_id"] = pi.PaymentMethodID
	}
	g.txnsMu.Lock()
	g.transactions[txn.ID] = txn
	g.txnsMu.Unlock()
	pi.Status = model.PaymentStatusSucceeded

	platform, _ := txn.Fees.PlatformFee.Float64()
	provider, _ := txn.Fees.ProviderFee.Float64()
	metrics.IncPayment(g.ProviderID(), string(model.PaymentStatusSucceeded))
	metrics.AddPaymentRevenue(txn.Currency, txn.Amount)
	metrics.AddPaymentFees(txn.Currency, platform, provider)
	metrics.ObserveConfirm(g.ProviderID(), "succeeded", time.Since(started))
	logging.With(ctx, g.log).Info().
		Str("intent_id", pi.ID).
		Str("transaction_id", txn.ID).
		Str("net_amount", txn.Fees.NetAmount.String()).
		Msg("payment intent succeeded")
	return pi.Clone(), nil
}

// CancelPaymentIntent forces the intent to cancelled whatever its state.
// Cancelling twice is not an error.
func (g *MockGateway) CancelPaymentIntent(ctx context.Context, intentID string) (*model.PaymentIntent, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	g.intentsMu.Lock()
	defer g.intentsMu.Unlock()
	pi, ok := g.intents[intentID]
	if !ok {
		return nil, g.intentNotFound(intentID)
	}
	if pi.Status != model.PaymentStatusCancelled {
		prev := pi.Status
		pi.Status = model.PaymentStatusCancelled
		pi.UpdatedAt = g.now()
		metrics.IncPayment(g.ProviderID(), string(model.PaymentStatusCancelled))
		logging.With(ctx, g.log).Info().
			Str("intent_id", pi.ID).
			Str("previous_status", string(prev)).
			Msg("payment intent cancelled")
	}
	return pi.Clone(), nil
}

func (g *MockGateway) GetPaymentIntent(_ context.Context, intentID string) (*model.PaymentIntent, error) {
	g.intentsMu.Lock()
	defer g.intentsMu.Unlock()
	pi, ok := g.intents[intentID]
	if !ok {
		return nil, g.intentNotFound(intentID)
	}
	return pi.Clone(), nil
}

// RefundPayment creates a new negative transaction against a charge. The
// original transaction is never modified.
func (g *MockGateway) RefundPayment(ctx context.Context, transactionID string, amount *int64) (*model.PaymentTransaction, error) {
	if err := g.EnsureInitialized(); err != nil {
		return nil, err
	}
	if err := g.requireFeature(model.FeatureRefunds); err != nil {
		return nil, err
	}
	g.intentsMu.Lock()
	defer g.intentsMu.Unlock()
	g.txnsMu.Lock()
	defer g.txnsMu.Unlock()

	orig, ok := g.transactions[transactionID]
	if !ok {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeTransactionNotFound,
			"transaction %s not found", transactionID)
	}
	if orig.Type != model.TransactionTypeCharge {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeTransactionNotRefund,
			"transaction %s is a %s and cannot be refunded", transactionID, orig.Type)
	}
	pi := g.intents[orig.PaymentIntentID]
	if pi != nil && pi.Status != model.PaymentStatusSucceeded && pi.Status != model.PaymentStatusPartiallyRefunded {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeTransactionNotRefund,
			"payment intent %s is %s and cannot be refunded", pi.ID, pi.Status).
			WithDetail("status", string(pi.Status))
	}
	refund := orig.Amount
	if amount != nil {
		refund = *amount
	}
	if err := g.ValidateAmount(refund); err != nil {
		return nil, err
	}
	var already int64
	if pi != nil {
		already = pi.RefundedAmount
	}
	if already+refund > orig.Amount {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeRefundExceedsAmount,
			"refund of %d exceeds refundable %d", refund, orig.Amount-already).
			WithDetail("refundable", orig.Amount-already)
	}

	now := g.now()
	rt := &model.PaymentTransaction{
		ID:                    newID("txn"),
		PaymentIntentID:       orig.PaymentIntentID,
		Type:                  model.TransactionTypeRefund,
		Amount:                -refund,
		Currency:              orig.Currency,
		Status:                model.PaymentStatusSucceeded,
		ProviderTransactionID: g.ProviderID() + "_rfnd_" + uuid.NewString(),
		Fees:                  model.RefundFees(-refund),
		Metadata:              map[string]string{model.MetaOriginalTransactionID: orig.ID},
		CreatedAt:             now,
		ProcessedAt:           now,
	}
	g.transactions[rt.ID] = rt

	partial := already+refund < orig.Amount
	if pi != nil {
		pi.RefundedAmount = already + refund
		pi.Status = model.PaymentStatusRefunded
		if partial {
			pi.Status = model.PaymentStatusPartiallyRefunded
		}
		pi.UpdatedAt = now
	}

	metrics.IncRefund(g.ProviderID(), partial, rt.Currency, refund)
	logging.With(ctx, g.log).Info().
		Str("transaction_id", orig.ID).
		Str("refund_id", rt.ID).
		Int64("amount", refund).
		Bool("partial", partial).
		Msg("payment refunded")
	return rt.Clone(), nil
}

func (g *MockGateway) GetTransaction(_ context.Context, transactionID string) (*model.PaymentTransaction, error) {
	g.txnsMu.Lock()
	defer g.txnsMu.Unlock()
	t, ok := g.transactions[transactionID]
	if !ok {
		return nil, domain.ValidationError(g.ProviderID(), domain.CodeTransactionNotFound,
			"transaction %s not found", transactionID)
	}
	return t.Clone(), nil
}

// ListTransactions returns the transactions of an intent, oldest first.
func (g *MockGateway) ListTransactions(_ context.Context, intentID string) ([]*model.PaymentTransaction, error) {
	g.intentsMu.Lock()
	defer g.intentsMu.Unlock()
	if _, ok := g.intents[intentID]; !ok {
		return nil, g.intentNotFound(intentID)
	}
	g.txnsMu.Lock()
	defer g.txnsMu.Unlock()
	out := make([]*model.PaymentTransaction, 0, 2)
	for _, t := range g.transactions {
		if t.PaymentIntentID == intentID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *MockGateway) intentNotFound(id string) error {
	return domain.ValidationError(g.ProviderID(), domain.CodeIntentNotFound, "payment intent %s not found", id)
}
