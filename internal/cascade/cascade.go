// Package cascade wraps every provider call with ordered model-tier
// fallback: overload advances to the next tier, anything else is fatal.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mimurillof/chat-agent-service/internal/metrics"
	"github.com/mimurillof/chat-agent-service/internal/provider"
)

// ErrAllTiersExhausted is returned when every tier in a chain reported
// capacity exceeded.
var ErrAllTiersExhausted = errors.New("all model tiers exhausted")

// Selector resolves a requested model to its fallback chain and walks
// it sequentially. Calls are never speculated in parallel: a second
// in-flight call could double tool side effects and billing.
type Selector struct {
	gateway provider.Gateway
	chains  map[string][]string
	logger  *slog.Logger
}

// NewSelector builds a selector over static fallback chains. A model
// with no chain entry gets a single-element chain of itself.
func NewSelector(gateway provider.Gateway, chains map[string][]string, logger *slog.Logger) (*Selector, error) {
	for model, chain := range chains {
		if len(chain) == 0 {
			return nil, fmt.Errorf("cascade chain for %s is empty", model)
		}
		seen := make(map[string]bool, len(chain))
		for _, m := range chain {
			if seen[m] {
				return nil, fmt.Errorf("cascade chain for %s lists %s twice", model, m)
			}
			seen[m] = true
		}
	}
	return &Selector{gateway: gateway, chains: chains, logger: logger}, nil
}

// Chain returns the ordered fallback list for a model.
func (s *Selector) Chain(model string) []string {
	if chain, ok := s.chains[model]; ok {
		return chain
	}
	return []string{model}
}

// Invoke calls the provider through the fallback chain. It returns the
// result and the model that actually answered. Capacity errors advance
// the chain; any other error propagates immediately.
func (s *Selector) Invoke(ctx context.Context, model string, req *provider.GenerateRequest) (*provider.Result, string, error) {
	chain := s.Chain(model)
	var lastErr error
	for i, m := range chain {
		result, err := s.gateway.Generate(ctx, m, req)
		if err == nil {
			result.ModelUsed = m
			return result, m, nil
		}
		if !provider.IsCapacityExceeded(err) {
			return nil, "", err
		}
		lastErr = err
		s.logger.Warn("model tier overloaded", "model", m, "error", err)
		if i+1 < len(chain) {
			metrics.CascadeFallbacks.WithLabelValues(m, chain[i+1]).Inc()
		}
	}
	return nil, "", fmt.Errorf("%w (last: %v)", ErrAllTiersExhausted, lastErr)
}

// InvokeStream is Invoke for the streaming variant. Fallback applies
// only to opening the stream; a failure mid-stream belongs to the
// consumer.
func (s *Selector) InvokeStream(ctx context.Context, model string, req *provider.GenerateRequest) (*provider.Stream, string, error) {
	chain := s.Chain(model)
	var lastErr error
	for i, m := range chain {
		stream, err := s.gateway.GenerateStream(ctx, m, req)
		if err == nil {
			return stream, m, nil
		}
		if !provider.IsCapacityExceeded(err) {
			return nil, "", err
		}
		lastErr = err
		s.logger.Warn("model tier overloaded on stream open", "model", m, "error", err)
		if i+1 < len(chain) {
			metrics.CascadeFallbacks.WithLabelValues(m, chain[i+1]).Inc()
		}
	}
	return nil, "", fmt.Errorf("%w (last: %v)", ErrAllTiersExhausted, lastErr)
}
