package hub

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultMaxInFlight bounds concurrent deliveries per dispatch call.
	DefaultMaxInFlight = 8

	// DefaultDispatchTimeout caps how long one dispatch call may block.
	DefaultDispatchTimeout = 30 * time.Second
)

// DeliveryProvider is the external transport (SMTP, SMS, webhook relay) the
// dispatcher hands individual deliveries to. Implementations must be safe for
// concurrent use.
type DeliveryProvider interface {
	Send(ctx context.Context, address, message string) error
}

// Recipient is one resolved delivery target.
type Recipient struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

// Delivery is the outcome of one per-recipient delivery attempt.
type Delivery struct {
	RecipientID string `json:"recipient_id"`
	Address     string `json:"address"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// DispatchResult aggregates per-recipient outcomes for one dispatch call.
// SuccessCount+FailureCount always equals len(PerRecipient) which always
// equals the number of recipients passed in.
type DispatchResult struct {
	PerRecipient []Delivery `json:"per_recipient"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
}

// DispatchHooks are optional callbacks for instrumentation.
type DispatchHooks struct {
	// OnDelivery fires once per recipient with the delivery outcome.
	OnDelivery func(success bool)

	// OnComplete fires once per dispatch call after all units finish.
	OnComplete func(recipients int, duration float64, successCount, failureCount int)
}

// Dispatcher fans one message out to a set of recipients, one concurrent
// delivery per recipient bounded by maxInFlight. A failed delivery never
// aborts the batch; every recipient gets exactly one slot in the result.
type Dispatcher struct {
	provider    DeliveryProvider
	maxInFlight int
	timeout     time.Duration
	logger      log.Logger
	hooks       DispatchHooks
}

// NewDispatcher creates a dispatcher around the given provider. Zero values
// for maxInFlight and timeout fall back to the package defaults.
func NewDispatcher(provider DeliveryProvider, maxInFlight int, timeout time.Duration, logger log.Logger, hooks DispatchHooks) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Dispatcher{
		provider:    provider,
		maxInFlight: maxInFlight,
		timeout:     timeout,
		logger:      logger,
		hooks:       hooks,
	}
}

// Dispatch delivers message to every recipient and blocks until all units
// complete or the timeout elapses. Units still outstanding at the deadline
// are recorded as failures with the context error, never left pending.
func (d *Dispatcher) Dispatch(ctx context.Context, recipients []Recipient, message string) *DispatchResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	results := make([]Delivery, len(recipients))

	var g errgroup.Group
	g.SetLimit(d.maxInFlight)

	for i := range recipients {
		r := recipients[i]
		g.Go(func() error {
			results[i] = d.deliver(ctx, r, message)
			return nil
		})
	}

	// deliver never returns an error; Wait is pure synchronization here.
	_ = g.Wait()

	res := &DispatchResult{PerRecipient: results}
	for i := range results {
		if results[i].Success {
			res.SuccessCount++
		} else {
			res.FailureCount++
		}
	}

	if d.hooks.OnComplete != nil {
		d.hooks.OnComplete(len(recipients), time.Since(start).Seconds(), res.SuccessCount, res.FailureCount)
	}

	return res
}

func (d *Dispatcher) deliver(ctx context.Context, r Recipient, message string) Delivery {
	out := Delivery{RecipientID: r.ID, Address: r.Address}

	// A unit that never got started before the deadline fails with the
	// context error rather than hitting the provider.
	err := ctx.Err()
	if err == nil {
		err = d.provider.Send(ctx, r.Address, message)
	}

	if err != nil {
		out.Error = err.Error()
		d.logger.Warn(ctx, "delivery failed", "recipient", r.ID, "error", err.Error())
	} else {
		out.Success = true
	}

	if d.hooks.OnDelivery != nil {
		d.hooks.OnDelivery(out.Success)
	}
	return out
}
