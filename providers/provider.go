// Package providers defines the backend-neutral contract between the
// conversation loop and each reasoning backend, plus a registry keyed by
// provider identifier. Each adapter is a pure per-turn translation: neutral
// conversation in, neutral response out.
package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/message"
)

// DefaultTimeout bounds one backend call uniformly across adapters.
const DefaultTimeout = 60 * time.Second

// Request is one decision turn sent to a backend. Credential is the
// decrypted API key for the selected backend, supplied per call; adapters
// that need none ignore it.
type Request struct {
	Model       string
	Credential  string
	Messages    []message.Message
	Functions   []agent.FunctionSchema
	MaxTokens   int
	Temperature *float64
}

// Response is the neutral backend reply: free text, or a single requested
// function invocation. Adapters without native function calling never set
// FunctionCall.
type Response struct {
	Content      string
	FunctionCall *agent.FunctionCall
}

// Provider adapts one reasoning backend.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req Request) (Response, error)
}

// Registry stores providers keyed by identifier.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds providers to the registry.
func (r *Registry) Register(providers ...Provider) error {
	for i, p := range providers {
		if p == nil {
			return fmt.Errorf("provider at index %d is nil", i)
		}
		if p.Name() == "" {
			return fmt.Errorf("provider at index %d has empty name", i)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return nil
}

// Lookup finds a provider by identifier.
func (r *Registry) Lookup(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderUnknown, name)
	}
	return p, nil
}
