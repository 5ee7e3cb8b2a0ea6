package query

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/uplug/einvoice-bfa-go/internal/domain"
)

// Mutation wraps a write. One instance is shared by every caller of the same
// form, so IsPending doubles as the "submit disabled" flag.
type Mutation[In, Out any] struct {
	name        string
	client      *Client
	fn          func(context.Context, In) (Out, error)
	invalidates []string
	pending     atomic.Bool
}

// NewMutation creates a mutation that invalidates roots after each success.
func NewMutation[In, Out any](c *Client, name string, fn func(context.Context, In) (Out, error), invalidates ...string) *Mutation[In, Out] {
	return &Mutation[In, Out]{
		name:        name,
		client:      c,
		fn:          fn,
		invalidates: invalidates,
	}
}

// IsPending reports whether a call is in flight.
func (m *Mutation[In, Out]) IsPending() bool {
	return m.pending.Load()
}

// Mutate runs the write. A second call while one is pending fails with
// domain.ErrMutationPending and sends nothing.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	var zero Out
	if !m.pending.CompareAndSwap(false, true) {
		m.record("rejected")
		return zero, domain.ErrMutationPending
	}
	defer m.pending.Store(false)

	ctx, span := tracer.Start(ctx, "query.Mutate."+m.name)
	defer span.End()

	out, err := m.fn(ctx, in)
	if err != nil {
		m.record("error")
		m.client.logger.Debug("mutation failed", zap.String("mutation", m.name), zap.Error(err))
		return zero, err
	}

	if len(m.invalidates) > 0 {
		m.client.Invalidate(m.invalidates...)
	}
	m.record("success")
	return out, nil
}

func (m *Mutation[In, Out]) record(outcome string) {
	if m.client.metrics != nil {
		m.client.metrics.IncrMutation(m.name, outcome)
	}
}
