package providers

import (
	"context"
	"errors"
	"testing"
)

type namedProvider string

func (p namedProvider) Name() string { return string(p) }

func (p namedProvider) Chat(ctx context.Context, req Request) (Response, error) {
	return Response{Content: "ok"}, nil
}

func TestRegistryLookup(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(namedProvider("openai"), namedProvider("ollama")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := registry.Lookup("ollama")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Fatalf("unexpected provider: %q", p.Name())
	}
}

func TestRegistryUnknownProvider(t *testing.T) {
	_, err := NewRegistry().Lookup("mystery")
	if !errors.Is(err, ErrProviderUnknown) {
		t.Fatalf("expected ErrProviderUnknown, got %v", err)
	}
}

func TestRegistryRejectsNilProvider(t *testing.T) {
	if err := NewRegistry().Register(nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	if err := NewRegistry().Register(namedProvider("")); err == nil {
		t.Fatalf("expected error for empty name")
	}
}
