package agent

import (
	"errors"
	"testing"

	"github.com/apigent/apigent/openapi"
)

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	ep := getPetEndpoint()
	if err := registry.AddDocument("doc-1", testDocument(), []openapi.Endpoint{ep}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	binding := Binding{DocumentID: "doc-1", EndpointID: ep.ID()}
	resolved, doc, err := registry.Resolve(binding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Path != "/pets/{id}" {
		t.Fatalf("unexpected endpoint: %+v", resolved)
	}
	if doc.BaseURL != "https://api.example.com" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestRegistryResolveMissingDocument(t *testing.T) {
	registry := NewRegistry()
	_, _, err := registry.Resolve(Binding{DocumentID: "ghost", EndpointID: "GET /x"})
	if !errors.Is(err, ErrBindingMissing) {
		t.Fatalf("expected ErrBindingMissing, got %v", err)
	}
}

func TestRegistryResolveMissingEndpoint(t *testing.T) {
	registry := NewRegistry()
	_ = registry.AddDocument("doc-1", testDocument(), nil)
	_, _, err := registry.Resolve(Binding{DocumentID: "doc-1", EndpointID: "GET /gone"})
	if !errors.Is(err, ErrBindingMissing) {
		t.Fatalf("expected ErrBindingMissing, got %v", err)
	}
}

func TestRegistryRemoveDocument(t *testing.T) {
	registry := NewRegistry()
	ep := listPetsEndpoint()
	_ = registry.AddDocument("doc-1", testDocument(), []openapi.Endpoint{ep})
	registry.RemoveDocument("doc-1")
	if _, ok := registry.Document("doc-1"); ok {
		t.Fatalf("document should be gone")
	}
	_, _, err := registry.Resolve(Binding{DocumentID: "doc-1", EndpointID: ep.ID()})
	if !errors.Is(err, ErrBindingMissing) {
		t.Fatalf("expected ErrBindingMissing after removal, got %v", err)
	}
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	if err := NewRegistry().AddDocument("", testDocument(), nil); err == nil {
		t.Fatalf("expected error for empty document id")
	}
}
