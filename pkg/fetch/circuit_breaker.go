package fetch

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenk/backoff"
	"github.com/facebookgo/clock"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerThreshold is the number of consecutive failures that trips a host.
const breakerThreshold = 5

// breakers holds one circuit breaker per source host.
type breakers struct {
	mu    sync.RWMutex
	byID  map[string]*circuit.Breaker
	clock clock.Clock
}

func newBreakers() *breakers {
	return &breakers{byID: make(map[string]*circuit.Breaker), clock: clock.New()}
}

// get returns or creates the breaker for host.
func (b *breakers) get(host string) *circuit.Breaker {
	b.mu.RLock()
	breaker, ok := b.byID[host]
	b.mu.RUnlock()
	if ok {
		return breaker
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if breaker, ok := b.byID[host]; ok {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.RandomizationFactor = 0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		Clock:      b.clock,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	b.byID[host] = breaker
	return breaker
}

// call runs fn under the breaker for host. Transport errors and 5xx answers
// count as failures; anything else resets the breaker. An open breaker is
// reported by Call itself, which also performs the half-open transition.
func (b *breakers) call(host string, fn func() Result) Result {
	breaker := b.get(host)

	var res Result
	err := breaker.Call(func() error {
		res = fn()
		if res.Err != nil {
			return res.Err
		}
		if res.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("status %d", res.StatusCode)
		}
		return nil
	}, 0)
	if err == circuit.ErrBreakerOpen {
		return Result{Err: fmt.Errorf("%w for %s", ErrCircuitOpen, host)}
	}
	return res
}

func (b *breakers) states() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.byID))
	for host, breaker := range b.byID {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
