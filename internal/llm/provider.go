// Package llm wraps the external model providers behind a uniform
// completion contract, chains them into an ordered fallback sequence, and
// post-processes free-text model output into coarse issues with keyword
// heuristics.
package llm

import (
	"context"
	"errors"
)

// Request is a completion request sent to a provider.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Response is the raw text returned by a provider.
type Response struct {
	Content    string
	TokensUsed int
}

// Provider is the uniform contract for an external model provider. A call
// may take arbitrary time; cancellation belongs to the caller's context.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// ErrNoProviders is returned by a Chain with no configured providers.
var ErrNoProviders = errors.New("no providers configured")

// Chain tries providers in order, short-circuiting on the first success.
// It replaces nested fallback cascades with an explicit ordered list.
type Chain struct {
	providers []Provider
}

// NewChain builds a fallback chain. Nil providers are skipped so callers can
// pass conditionally constructed clients directly.
func NewChain(providers ...Provider) *Chain {
	c := &Chain{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Len reports how many providers are configured.
func (c *Chain) Len() int { return len(c.providers) }

// Complete tries each provider in sequence and returns the first successful
// response. If every provider fails, the last error is returned.
func (c *Chain) Complete(ctx context.Context, req Request) (Response, error) {
	if len(c.providers) == 0 {
		return Response{}, ErrNoProviders
	}
	var lastErr error
	for _, p := range c.providers {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return Response{}, lastErr
}
