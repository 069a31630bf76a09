// Package auth supplies the authenticated actor identity for requests.
//
// The import pipeline only needs to know whether a valid actor exists
// before a batch starts; identity is not re-checked mid-batch.
package auth

import (
	"context"
	"strings"
)

// Actor is an authenticated identity performing requests.
type Actor struct {
	ID   string
	Name string
}

// ActorProvider resolves a session token to an actor. A nil actor with a
// nil error means the session is unknown or expired.
type ActorProvider interface {
	Actor(ctx context.Context, token string) (*Actor, error)
}

// StaticProvider resolves actors from a fixed token table, typically
// loaded from configuration. The table is immutable after construction.
type StaticProvider struct {
	tokens map[string]Actor
}

// Option applies a configuration option to the StaticProvider.
type Option func(*StaticProvider)

// WithToken registers one token -> actor binding.
func WithToken(token string, actor Actor) Option {
	return func(p *StaticProvider) {
		if token != "" {
			p.tokens[token] = actor
		}
	}
}

// WithTokenTable registers token -> actor-name bindings from a config map.
func WithTokenTable(table map[string]string) Option {
	return func(p *StaticProvider) {
		for token, name := range table {
			if token == "" {
				continue
			}
			p.tokens[token] = Actor{ID: name, Name: name}
		}
	}
}

// NewStaticProvider creates a provider over a fixed token table.
func NewStaticProvider(opts ...Option) *StaticProvider {
	p := &StaticProvider{
		tokens: make(map[string]Actor),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Actor resolves token; returns nil when the token is unknown.
func (p *StaticProvider) Actor(_ context.Context, token string) (*Actor, error) {
	actor, ok := p.tokens[strings.TrimSpace(token)]
	if !ok {
		return nil, nil
	}
	return &actor, nil
}

type contextKey struct{}

// WithActor stores the resolved actor in ctx for downstream handlers.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// FromContext returns the actor stored in ctx, or nil.
func FromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(contextKey{}).(*Actor)
	return actor
}
