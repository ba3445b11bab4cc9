package payment

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
	"carepay-gateway/internal/infra/logging"
)

// Constructor builds an uninitialized gateway for a provider descriptor.
type Constructor func(provider model.PaymentProvider) (adapter.PaymentGateway, error)

// MockConstructor builds MockGateways sharing opts.
func MockConstructor(opts MockOptions) Constructor {
	return func(p model.PaymentProvider) (adapter.PaymentGateway, error) {
		return NewMockGateway(p, opts), nil
	}
}

type entry struct {
	ready chan struct{} // closed once gw/err are set
	gw    adapter.PaymentGateway
	err   error
	// abandoned marks a build that failed because its caller's context
	// ended. Waiters with a live context build again.
	abandoned bool
}

// Registry owns one initialized gateway per provider id. Adapters are
// chosen by provider type; types without a registered constructor use the
// fallback.
type Registry struct {
	log      *zerolog.Logger
	fallback Constructor

	mu           sync.Mutex
	constructors map[model.ProviderType]Constructor
	gateways     map[string]*entry
}

func NewRegistry(fallback Constructor, logger *zerolog.Logger) *Registry {
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "PaymentRegistry").Logger()
	return &Registry{
		log:          &l,
		fallback:     fallback,
		constructors: make(map[model.ProviderType]Constructor),
		gateways:     make(map[string]*entry),
	}
}

// RegisterAdapter binds a provider type to its constructor. Instances that
// already exist are not affected.
func (r *Registry) RegisterAdapter(t model.ProviderType, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[t] = c
}

// CreateGateway returns the gateway for p.ID, constructing and initializing
// it on first use. Concurrent callers for the same id share a single
// construction. A failed initialization is not cached. When the building
// caller gives up, callers that were waiting on it start a new
// construction under their own context.
func (r *Registry) CreateGateway(ctx context.Context, p model.PaymentProvider) (adapter.PaymentGateway, error) {
	r.mu.Lock()
	for {
		e, ok := r.gateways[p.ID]
		if !ok {
			break
		}
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, domain.NetworkError(p.ID, domain.CodeTimeout, "waiting for gateway %s: %v", p.ID, ctx.Err())
		}
		if !e.abandoned || ctx.Err() != nil {
			return e.gw, e.err
		}
		r.mu.Lock()
	}
	e := &entry{ready: make(chan struct{})}
	r.gateways[p.ID] = e
	build := r.constructors[p.Type]
	if build == nil {
		build = r.fallback
	}
	r.mu.Unlock()

	gw, err := r.build(ctx, build, p)

	r.mu.Lock()
	if err != nil {
		delete(r.gateways, p.ID)
		e.abandoned = ctx.Err() != nil
	}
	e.gw, e.err = gw, err
	close(e.ready)
	r.mu.Unlock()

	if err != nil {
		r.log.Error().Err(err).Str("provider_id", p.ID).Msg("gateway initialization failed")
		return nil, err
	}
	r.log.Info().
		Str("provider_id", p.ID).
		Str("type", string(p.Type)).
		Msg("gateway registered")
	return gw, nil
}

func (r *Registry) build(ctx context.Context, build Constructor, p model.PaymentProvider) (adapter.PaymentGateway, error) {
	if build == nil {
		return nil, domain.ValidationError(p.ID, domain.CodeProviderNotFound,
			"no adapter for provider type %q", p.Type)
	}
	gw, err := build(p)
	if err != nil {
		return nil, err
	}
	if err := gw.Initialize(ctx); err != nil {
		return nil, err
	}
	return gw, nil
}

// GetGateway is a lookup only. Gateways still initializing are reported as
// absent.
func (r *Registry) GetGateway(providerID string) (adapter.PaymentGateway, bool) {
	r.mu.Lock()
	e, ok := r.gateways[providerID]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-e.ready:
		return e.gw, e.err == nil
	default:
		return nil, false
	}
}

// Gateways returns the ready gateways ordered by provider id.
func (r *Registry) Gateways() []adapter.PaymentGateway {
	r.mu.Lock()
	ids := make([]string, 0, len(r.gateways))
	entries := make(map[string]*entry, len(r.gateways))
	for id, e := range r.gateways {
		ids = append(ids, id)
		entries[id] = e
	}
	r.mu.Unlock()

	sort.Strings(ids)
	out := make([]adapter.PaymentGateway, 0, len(ids))
	for _, id := range ids {
		e := entries[id]
		select {
		case <-e.ready:
			if e.err == nil {
				out = append(out, e.gw)
			}
		default:
		}
	}
	return out
}
