package payment

import (
	"math/rand"
	"sync"
	"time"

	"carepay-gateway/internal/domain/model"
)

// DefaultSuccessRate is the share of confirmations the mock accepts.
const DefaultSuccessRate = 0.9

// Outcome decides whether a confirmation succeeds. A real adapter gets this
// answer from the provider; the mock asks an Outcome.
type Outcome interface {
	Succeeds(intent *model.PaymentIntent) bool
}

type OutcomeFunc func(intent *model.PaymentIntent) bool

func (f OutcomeFunc) Succeeds(intent *model.PaymentIntent) bool { return f(intent) }

func AlwaysSucceed() Outcome {
	return OutcomeFunc(func(*model.PaymentIntent) bool { return true })
}

func AlwaysFail() Outcome {
	return OutcomeFunc(func(*model.PaymentIntent) bool { return false })
}

type randomOutcome struct {
	mu   sync.Mutex
	rng  *rand.Rand
	rate float64
}

// RandomOutcome succeeds with probability rate, drawing uniformly per call.
// seed 0 seeds from the clock.
func RandomOutcome(rate float64, seed int64) Outcome {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randomOutcome{rng: rand.New(rand.NewSource(seed)), rate: rate}
}

func (o *randomOutcome) Succeeds(*model.PaymentIntent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Float64() < o.rate
}
