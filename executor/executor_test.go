package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/openapi"
)

// stubResolver maps endpoint IDs straight to endpoints inside one document.
type stubResolver struct {
	doc       openapi.Document
	endpoints map[string]openapi.Endpoint
	err       error
}

func (r *stubResolver) Resolve(b agent.Binding) (openapi.Endpoint, openapi.Document, error) {
	if r.err != nil {
		return openapi.Endpoint{}, openapi.Document{}, r.err
	}
	ep, ok := r.endpoints[b.EndpointID]
	if !ok {
		return openapi.Endpoint{}, openapi.Document{}, errors.New("endpoint not found")
	}
	return ep, r.doc, nil
}

func fixture(baseURL string) (*agent.FunctionSet, *stubResolver) {
	getPet := openapi.Endpoint{
		Method: "GET",
		Path:   "/pets/{petId}",
		Parameters: openapi.Parameters{
			Path:   []openapi.Parameter{{Name: "petId", Required: true, Type: "string"}},
			Query:  []openapi.Parameter{{Name: "verbose", Type: "boolean"}},
			Header: []openapi.Parameter{{Name: "X-Request-Id", Type: "string"}},
		},
	}
	createPet := openapi.Endpoint{
		Method:      "POST",
		Path:        "/pets",
		RequestBody: &openapi.RequestBody{Required: true, ContentType: "application/json"},
	}
	trace := openapi.Endpoint{Method: "TRACE", Path: "/debug"}

	set := agent.NewFunctionSet([]agent.FunctionSchema{
		{Name: "get_pets_by_petid", Binding: agent.Binding{DocumentID: "doc", EndpointID: getPet.ID()}},
		{Name: "post_pets", Binding: agent.Binding{DocumentID: "doc", EndpointID: createPet.ID()}},
		{Name: "trace_debug", Binding: agent.Binding{DocumentID: "doc", EndpointID: trace.ID()}},
	})
	resolver := &stubResolver{
		doc: openapi.Document{BaseURL: baseURL},
		endpoints: map[string]openapi.Endpoint{
			getPet.ID():    getPet,
			createPet.ID(): createPet,
			trace.ID():     trace,
		},
	}
	return set, resolver
}

func TestExecuteSubstitutesPathQueryAndHeaders(t *testing.T) {
	var gotPath, gotQuery, gotHeader, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Request-Id")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7, "name": "Rex"}`))
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name: "get_pets_by_petid",
		Arguments: map[string]any{
			"petId":        "7",
			"verbose":      true,
			"X-Request-Id": "req-1",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.StatusCode != http.StatusOK {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotPath != "/pets/7" {
		t.Fatalf("path substitution failed: %q", gotPath)
	}
	if gotQuery != "verbose=true" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if gotHeader != "req-1" {
		t.Fatalf("declared header not forwarded: %q", gotHeader)
	}
	if gotUA != "apigent/1.0" {
		t.Fatalf("unexpected user agent: %q", gotUA)
	}
	data, ok := result.Data.(map[string]any)
	if !ok || data["name"] != "Rex" {
		t.Fatalf("structured body not decoded: %+v", result.Data)
	}
}

func TestExecuteSynthesizesBodyExcludingConsumedArguments(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 8}`))
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name: "post_pets",
		Arguments: map[string]any{
			"name":      "Rex",
			"tag":       "dog",
			"_internal": "dropped",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected result: %+v", result)
	}
	var body map[string]any
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["name"] != "Rex" || body["tag"] != "dog" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["_internal"]; ok {
		t.Fatalf("underscore arguments must not reach the body: %v", body)
	}
}

func TestExecuteLiteralBodyArgumentWins(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{})
	_, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name: "post_pets",
		Arguments: map[string]any{
			"body":  map[string]any{"name": "Rex"},
			"extra": "ignored",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(gotBody, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["name"] != "Rex" {
		t.Fatalf("literal body argument lost: %v", body)
	}
	if _, ok := body["extra"]; ok {
		t.Fatalf("siblings of a literal body must be dropped: %v", body)
	}
}

func TestExecuteHTTPErrorRetainsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "pet not found"}`))
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name:      "get_pets_by_petid",
		Arguments: map[string]any{"petId": "99"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("4xx must not be a success: %+v", result)
	}
	if result.Failure != FailureHTTP || result.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected failure classification: %+v", result)
	}
	if !strings.HasPrefix(result.Err, "HTTP 404:") {
		t.Fatalf("unexpected error string: %q", result.Err)
	}
	data, ok := result.Data.(map[string]any)
	if !ok || data["error"] != "pet not found" {
		t.Fatalf("error payload must be retained in Data: %+v", result.Data)
	}
}

func TestExecuteUnknownFunction(t *testing.T) {
	set, resolver := fixture("http://example.invalid")
	engine := New(Config{})
	_, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{Name: "missing"})
	if !errors.Is(err, agent.ErrFunctionNotFound) {
		t.Fatalf("expected ErrFunctionNotFound, got %v", err)
	}
}

func TestExecuteResolverError(t *testing.T) {
	set, resolver := fixture("http://example.invalid")
	resolver.err = agent.ErrBindingMissing
	engine := New(Config{})
	_, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{Name: "get_pets_by_petid"})
	if !errors.Is(err, agent.ErrBindingMissing) {
		t.Fatalf("expected resolver error to surface, got %v", err)
	}
}

func TestExecuteUnsupportedMethod(t *testing.T) {
	set, resolver := fixture("http://example.invalid")
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{Name: "trace_debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failure != FailureBadRequest || !strings.Contains(result.Err, "unsupported HTTP method") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteUnresolvedPlaceholder(t *testing.T) {
	set, resolver := fixture("http://example.invalid")
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name:      "get_pets_by_petid",
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failure != FailureBadRequest || !strings.Contains(result.Err, "unresolved path placeholder {petId}") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name:      "get_pets_by_petid",
		Arguments: map[string]any{"petId": "7"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failure != FailureConnection || result.StatusCode != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.HasPrefix(result.Err, "could not connect to ") {
		t.Fatalf("unexpected error string: %q", result.Err)
	}
}

func TestExecuteTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{Timeout: 20 * time.Millisecond})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name:      "get_pets_by_petid",
		Arguments: map[string]any{"petId": "7"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Failure != FailureTimeout || result.StatusCode != http.StatusRequestTimeout {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Err != "request timeout - the API took too long to respond" {
		t.Fatalf("unexpected error string: %q", result.Err)
	}
}

func TestExecuteOAuthClientCarriesBearerToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 7}`))
	}))
	defer server.Close()

	set, resolver := fixture(server.URL)
	engine := New(Config{OAuth: &clientcredentials.Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		TokenURL:     tokenServer.URL + "/token",
	}})
	result, err := engine.Execute(context.Background(), set, resolver, agent.FunctionCall{
		Name:      "get_pets_by_petid",
		Arguments: map[string]any{"petId": "7"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("remote call must carry the client-credentials token, got %q", gotAuth)
	}
}

func TestJoinURL(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"https://api.example.com", "/pets", "https://api.example.com/pets"},
		{"https://api.example.com/", "/pets", "https://api.example.com/pets"},
		{"https://api.example.com/v1", "pets", "https://api.example.com/v1/pets"},
		{"", "/pets", "/pets"},
	}
	for _, tc := range cases {
		if got := joinURL(tc.base, tc.path); got != tc.want {
			t.Fatalf("joinURL(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}

func TestFormatForModel(t *testing.T) {
	structured := FormatForModel(Result{
		Success: true,
		Data:    map[string]any{"id": float64(7), "name": "Rex"},
	})
	if !strings.Contains(structured, "\"name\": \"Rex\"") {
		t.Fatalf("structured data should be pretty-printed: %q", structured)
	}

	plain := FormatForModel(Result{Success: true, Data: "pong"})
	if plain != "pong" {
		t.Fatalf("plain text should pass through: %q", plain)
	}

	failed := FormatForModel(Result{StatusCode: 404, Err: "HTTP 404: not found"})
	if failed != "Error 404: HTTP 404: not found" {
		t.Fatalf("unexpected failure rendering: %q", failed)
	}

	unknown := FormatForModel(Result{})
	if unknown != "Error 0: Unknown error" {
		t.Fatalf("unexpected empty-failure rendering: %q", unknown)
	}
}
