package agent

import (
	"fmt"
	"sync"

	"github.com/apigent/apigent/openapi"
)

// Registry stores description documents and their extracted endpoints, and
// resolves execution bindings back to them. It is read-only during a
// conversation; documents are added or replaced between conversations.
type Registry struct {
	mu        sync.RWMutex
	documents map[string]openapi.Document
	endpoints map[string]map[string]openapi.Endpoint
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		documents: make(map[string]openapi.Document),
		endpoints: make(map[string]map[string]openapi.Endpoint),
	}
}

// AddDocument registers a document and its endpoints under the given ID,
// replacing any previous registration.
func (r *Registry) AddDocument(id string, doc openapi.Document, endpoints []openapi.Endpoint) error {
	if id == "" {
		return fmt.Errorf("document id is empty")
	}
	byID := make(map[string]openapi.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byID[ep.ID()] = ep
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[id] = doc
	r.endpoints[id] = byID
	return nil
}

// RemoveDocument drops a document and its endpoints.
func (r *Registry) RemoveDocument(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.documents, id)
	delete(r.endpoints, id)
}

// Document returns a registered document by ID.
func (r *Registry) Document(id string) (openapi.Document, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[id]
	return doc, ok
}

// Resolve recovers the source endpoint and owning document for an execution
// binding. A binding whose document or endpoint no longer exists is a
// data-integrity condition, reported as ErrBindingMissing.
func (r *Registry) Resolve(b Binding) (openapi.Endpoint, openapi.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.documents[b.DocumentID]
	if !ok {
		return openapi.Endpoint{}, openapi.Document{}, fmt.Errorf("%w: document %q", ErrBindingMissing, b.DocumentID)
	}
	ep, ok := r.endpoints[b.DocumentID][b.EndpointID]
	if !ok {
		return openapi.Endpoint{}, openapi.Document{}, fmt.Errorf("%w: endpoint %q in document %q", ErrBindingMissing, b.EndpointID, b.DocumentID)
	}
	return ep, doc, nil
}
