package location

import "fmt"

// AttemptState is the lifecycle of one provider inside a resolution.
type AttemptState string

const (
	StatePending   AttemptState = "pending"
	StateRetrying  AttemptState = "retrying"
	StateSucceeded AttemptState = "succeeded"
	StateExhausted AttemptState = "exhausted"
)

var validTransitions = map[AttemptState][]AttemptState{
	StatePending:   {StateSucceeded, StateRetrying, StateExhausted},
	StateRetrying:  {StateSucceeded, StateRetrying, StateExhausted},
	StateSucceeded: {},
	StateExhausted: {},
}

// providerAttempt tracks calls against a single provider.
type providerAttempt struct {
	provider    string
	maxAttempts int
	attempts    int
	state       AttemptState
	lastErr     *ProviderError
}

func newProviderAttempt(provider string, maxAttempts int) *providerAttempt {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &providerAttempt{
		provider:    provider,
		maxAttempts: maxAttempts,
		state:       StatePending,
	}
}

// done reports whether the attempt reached a terminal state.
func (a *providerAttempt) done() bool {
	return a.state == StateSucceeded || a.state == StateExhausted
}

// succeed records a successful call.
func (a *providerAttempt) succeed() error {
	a.attempts++
	return a.transition(StateSucceeded)
}

// fail records a failed call and moves to Retrying or Exhausted.
func (a *providerAttempt) fail(err *ProviderError) error {
	a.attempts++
	a.lastErr = err
	if err.Transient() && a.attempts < a.maxAttempts {
		return a.transition(StateRetrying)
	}
	return a.transition(StateExhausted)
}

func (a *providerAttempt) transition(next AttemptState) error {
	for _, allowed := range validTransitions[a.state] {
		if allowed == next {
			a.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid attempt transition for %s: %s -> %s", a.provider, a.state, next)
}
