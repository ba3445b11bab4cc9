//go:build !integration

package payment

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"carepay-gateway/internal/domain"
	"carepay-gateway/internal/domain/model"
	"carepay-gateway/internal/domain/ports/adapter"
)

func countingConstructor(n *int32, opts MockOptions) Constructor {
	return func(p model.PaymentProvider) (adapter.PaymentGateway, error) {
		atomic.AddInt32(n, 1)
		return NewMockGateway(p, opts), nil
	}
}

func TestRegistry_CreateGateway(t *testing.T) {
	ctx := context.Background()
	opts := MockOptions{Outcome: AlwaysSucceed(), Logger: newTestLogger()}

	t.Run("returns an initialized gateway and caches it", func(t *testing.T) {
		// --- Arrange ---
		var built int32
		r := NewRegistry(countingConstructor(&built, opts), newTestLogger())

		// --- Act ---
		first, err := r.CreateGateway(ctx, testProvider("mock-in"))
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		second, _ := r.CreateGateway(ctx, testProvider("mock-in"))

		// --- Assert ---
		if first != second {
			t.Error("expected the cached instance")
		}
		if built != 1 {
			t.Errorf("expected one construction, got %d", built)
		}
		if _, err := first.CreatePaymentIntent(ctx, intentRequest(100, "INR")); err != nil {
			t.Errorf("gateway should be usable: %v", err)
		}
	})

	t.Run("existing instance wins over a changed descriptor", func(t *testing.T) {
		r := NewRegistry(MockConstructor(opts), newTestLogger())
		first, _ := r.CreateGateway(ctx, testProvider("mock-in"))
		changed := testProvider("mock-in")
		changed.SupportedCurrencies = []string{"EUR"}

		second, _ := r.CreateGateway(ctx, changed)

		if second != first || second.Provider().SupportsCurrency("EUR") {
			t.Error("descriptor of the cached instance must be unchanged")
		}
	})

	t.Run("concurrent callers share one construction", func(t *testing.T) {
		var built int32
		slow := opts
		slow.InitDelay = 20 * time.Millisecond
		r := NewRegistry(countingConstructor(&built, slow), newTestLogger())

		var wg sync.WaitGroup
		results := make([]adapter.PaymentGateway, 32)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				gw, err := r.CreateGateway(ctx, testProvider("mock-in"))
				if err != nil {
					t.Errorf("create: %v", err)
				}
				results[i] = gw
			}(i)
		}
		wg.Wait()

		if built != 1 {
			t.Errorf("expected one construction, got %d", built)
		}
		for _, gw := range results {
			if gw != results[0] {
				t.Fatal("callers received different instances")
			}
		}
	})

	t.Run("dispatches by provider type with mock fallback", func(t *testing.T) {
		var stripeBuilt, fallbackBuilt int32
		r := NewRegistry(countingConstructor(&fallbackBuilt, opts), newTestLogger())
		r.RegisterAdapter(model.ProviderTypeStripe, countingConstructor(&stripeBuilt, opts))
		stripe := testProvider("stripe-us")
		stripe.Type = model.ProviderTypeStripe
		razorpay := testProvider("razorpay-in")
		razorpay.Type = model.ProviderTypeRazorpay

		_, _ = r.CreateGateway(ctx, stripe)
		_, _ = r.CreateGateway(ctx, razorpay)

		if stripeBuilt != 1 || fallbackBuilt != 1 {
			t.Errorf("unexpected dispatch: stripe=%d fallback=%d", stripeBuilt, fallbackBuilt)
		}
	})

	t.Run("failed initialization is not cached", func(t *testing.T) {
		var built int32
		r := NewRegistry(countingConstructor(&built, opts), newTestLogger())
		p := testProvider("mock-off")
		p.Active = false

		_, err := r.CreateGateway(ctx, p)
		requireCode(t, err, domain.CodeProviderInactive, domain.ErrorTypeValidation)
		if _, ok := r.GetGateway("mock-off"); ok {
			t.Error("failed gateway must not be registered")
		}

		p.Active = true
		gw, err := r.CreateGateway(ctx, p)
		if err != nil || gw == nil {
			t.Fatalf("retry should succeed: %v", err)
		}
		if built != 2 {
			t.Errorf("expected a second construction, got %d", built)
		}
	})

	t.Run("waiter builds again when the first caller gives up", func(t *testing.T) {
		// --- Arrange ---
		var built int32
		started := make(chan struct{}, 2)
		slow := opts
		slow.InitDelay = 100 * time.Millisecond
		r := NewRegistry(func(p model.PaymentProvider) (adapter.PaymentGateway, error) {
			atomic.AddInt32(&built, 1)
			started <- struct{}{}
			return NewMockGateway(p, slow), nil
		}, newTestLogger())

		shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		firstErr := make(chan error, 1)
		go func() {
			_, err := r.CreateGateway(shortCtx, testProvider("mock-in"))
			firstErr <- err
		}()
		<-started

		// --- Act ---
		gw, err := r.CreateGateway(ctx, testProvider("mock-in"))

		// --- Assert ---
		if err != nil || gw == nil {
			t.Fatalf("expected a gateway for the live caller, got %v", err)
		}
		requireCode(t, <-firstErr, domain.CodeTimeout, domain.ErrorTypeNetwork)
		if got, ok := r.GetGateway("mock-in"); !ok || got != gw {
			t.Error("rebuilt gateway must be registered")
		}
		if n := atomic.LoadInt32(&built); n != 2 {
			t.Errorf("expected two constructions, got %d", n)
		}
	})

	t.Run("constructor errors are returned", func(t *testing.T) {
		boom := errors.New("boom")
		r := NewRegistry(func(model.PaymentProvider) (adapter.PaymentGateway, error) { return nil, boom }, newTestLogger())

		_, err := r.CreateGateway(ctx, testProvider("x"))

		if !errors.Is(err, boom) {
			t.Errorf("expected constructor error, got %v", err)
		}
	})

	t.Run("no constructor at all", func(t *testing.T) {
		r := NewRegistry(nil, newTestLogger())

		_, err := r.CreateGateway(ctx, testProvider("x"))

		requireCode(t, err, domain.CodeProviderNotFound, domain.ErrorTypeValidation)
	})
}

func TestRegistry_GetGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup never constructs", func(t *testing.T) {
		var built int32
		r := NewRegistry(countingConstructor(&built, MockOptions{Logger: newTestLogger()}), newTestLogger())

		gw, ok := r.GetGateway("mock-in")

		if ok || gw != nil {
			t.Error("expected nothing found")
		}
		if built != 0 {
			t.Error("lookup must not construct")
		}
	})

	t.Run("lists ready gateways by id", func(t *testing.T) {
		r := NewRegistry(MockConstructor(MockOptions{Logger: newTestLogger()}), newTestLogger())
		_, _ = r.CreateGateway(ctx, testProvider("b"))
		_, _ = r.CreateGateway(ctx, testProvider("a"))

		list := r.Gateways()

		if len(list) != 2 || list[0].Provider().ID != "a" || list[1].Provider().ID != "b" {
			t.Errorf("unexpected gateways %v", list)
		}
		if gw, ok := r.GetGateway("a"); !ok || gw != list[0] {
			t.Error("lookup should return the registered instance")
		}
	})

	t.Run("registries are isolated", func(t *testing.T) {
		r1 := NewRegistry(MockConstructor(MockOptions{Logger: newTestLogger()}), newTestLogger())
		r2 := NewRegistry(MockConstructor(MockOptions{Logger: newTestLogger()}), newTestLogger())
		_, _ = r1.CreateGateway(ctx, testProvider("a"))

		if _, ok := r2.GetGateway("a"); ok {
			t.Error("registries must not share state")
		}
	})
}
