package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedProvider spaces classification calls so at most rpm start in
// any minute. Requests wait their turn in arrival order.
type RateLimitedProvider struct {
	provider Provider
	interval time.Duration
	burst    time.Duration

	mu   sync.Mutex
	next time.Time // earliest start of the next call once the burst is spent
}

// NewRateLimitedProvider wraps provider. An rpm of zero or less disables
// limiting and returns provider itself.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	interval := time.Minute / time.Duration(rpm)
	return &RateLimitedProvider{
		provider: provider,
		interval: interval,
		burst:    time.Duration(rpm-1) * interval,
		next:     time.Now().Add(-time.Duration(rpm-1) * interval),
	}
}

func (r *RateLimitedProvider) Name() string { return r.provider.Name() }

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

// wait reserves a start slot and sleeps until it arrives. A cancelled
// caller gives its slot back when no later caller has reserved one.
func (r *RateLimitedProvider) wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	if floor := now.Add(-r.burst); r.next.Before(floor) {
		r.next = floor
	}
	slot := r.next
	r.next = r.next.Add(r.interval)
	r.mu.Unlock()

	delay := time.Until(slot)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		if r.next.Equal(slot.Add(r.interval)) {
			r.next = slot
		}
		r.mu.Unlock()
		return ctx.Err()
	}
}
