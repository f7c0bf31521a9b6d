package openapi

import (
	"testing"
)

func petstoreTree() map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info":    map[string]any{"title": "Petstore", "version": "1.0.0"},
		"paths": map[string]any{
			"/pets": map[string]any{
				"get": map[string]any{
					"operationId": "listPets",
					"summary":     "List all pets",
					"tags":        []any{"pets"},
					"parameters": []any{
						map[string]any{
							"name":   "limit",
							"in":     "query",
							"schema": map[string]any{"type": "integer"},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{"description": "A paged array of pets"},
					},
				},
				"post": map[string]any{
					"operationId": "createPet",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{
									"type": "object",
									"properties": map[string]any{
										"name": map[string]any{"type": "string"},
										"tag":  map[string]any{"type": "string"},
									},
								},
							},
						},
					},
				},
			},
			"/pets/{id}": map[string]any{
				"get": map[string]any{
					"operationId": "getPet",
					"parameters": []any{
						map[string]any{
							"name":     "id",
							"in":       "path",
							"required": true,
							"schema":   map[string]any{"type": "integer"},
						},
					},
				},
			},
		},
	}
}

func findEndpoint(t *testing.T, endpoints []Endpoint, method, path string) Endpoint {
	t.Helper()
	for _, ep := range endpoints {
		if ep.Method == method && ep.Path == path {
			return ep
		}
	}
	t.Fatalf("endpoint %s %s not extracted", method, path)
	return Endpoint{}
}

func TestExtractClassifiesParameters(t *testing.T) {
	endpoints, errs := Extract(petstoreTree())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(endpoints) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(endpoints))
	}

	list := findEndpoint(t, endpoints, "GET", "/pets")
	if list.OperationID != "listPets" {
		t.Fatalf("unexpected operation id: %q", list.OperationID)
	}
	if len(list.Parameters.Query) != 1 || list.Parameters.Query[0].Name != "limit" {
		t.Fatalf("expected query parameter limit, got %+v", list.Parameters)
	}
	if list.Parameters.Query[0].Type != "integer" {
		t.Fatalf("expected schema type integer, got %q", list.Parameters.Query[0].Type)
	}
	if len(list.Tags) != 1 || list.Tags[0] != "pets" {
		t.Fatalf("unexpected tags: %v", list.Tags)
	}
	if _, ok := list.Responses["200"]; !ok {
		t.Fatalf("expected 200 response recorded")
	}

	get := findEndpoint(t, endpoints, "GET", "/pets/{id}")
	if len(get.Parameters.Path) != 1 || !get.Parameters.Path[0].Required {
		t.Fatalf("expected required path parameter, got %+v", get.Parameters.Path)
	}
}

func TestExtractFlattensBodyFields(t *testing.T) {
	endpoints, _ := Extract(petstoreTree())
	create := findEndpoint(t, endpoints, "POST", "/pets")
	body := create.RequestBody
	if body == nil || !body.Required {
		t.Fatalf("expected required request body")
	}
	if body.ContentType != "application/json" {
		t.Fatalf("unexpected content type: %q", body.ContentType)
	}
	if len(body.Fields) != 2 || body.Fields[0].Name != "name" || body.Fields[1].Name != "tag" {
		t.Fatalf("unexpected body fields: %+v", body.Fields)
	}
}

func TestExtractBodyContentTypePriority(t *testing.T) {
	tree := map[string]any{
		"paths": map[string]any{
			"/things": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{
						"content": map[string]any{
							"application/xml": map[string]any{
								"schema": map[string]any{
									"properties": map[string]any{
										"xmlOnly": map[string]any{"type": "string"},
									},
								},
							},
							"application/json": map[string]any{
								"schema": map[string]any{
									"properties": map[string]any{
										"jsonField": map[string]any{"type": "string"},
									},
								},
							},
						},
					},
				},
			},
		},
	}
	endpoints, _ := Extract(tree)
	body := endpoints[0].RequestBody
	if body.ContentType != "application/json" {
		t.Fatalf("expected json to win, got %q", body.ContentType)
	}
	if len(body.Fields) != 1 || body.Fields[0].Name != "jsonField" {
		t.Fatalf("unexpected fields: %+v", body.Fields)
	}
}

func TestExtractSkipsMalformedPathItem(t *testing.T) {
	tree := petstoreTree()
	tree["paths"].(map[string]any)["/broken"] = "not an object"
	endpoints, errs := Extract(tree)
	if len(endpoints) != 3 {
		t.Fatalf("expected partial set of 3 endpoints, got %d", len(endpoints))
	}
	if len(errs) != 1 {
		t.Fatalf("expected one aggregate error, got %v", errs)
	}
}

func TestExtractDropsUnknownParameterLocation(t *testing.T) {
	tree := map[string]any{
		"paths": map[string]any{
			"/x": map[string]any{
				"get": map[string]any{
					"parameters": []any{
						map[string]any{"name": "weird", "in": "matrix"},
						map[string]any{"name": "ok", "in": "header"},
					},
				},
			},
		},
	}
	endpoints, errs := Extract(tree)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	params := endpoints[0].Parameters
	if len(params.Header) != 1 || params.Header[0].Name != "ok" {
		t.Fatalf("expected header parameter kept, got %+v", params)
	}
	if len(params.Query)+len(params.Path)+len(params.Cookie) != 0 {
		t.Fatalf("unknown location should be dropped, got %+v", params)
	}
}

func TestExtractWithoutPaths(t *testing.T) {
	_, errs := Extract(map[string]any{"openapi": "3.0.0"})
	if len(errs) != 1 {
		t.Fatalf("expected error for missing paths, got %v", errs)
	}
}

func TestPathPlaceholders(t *testing.T) {
	ep := Endpoint{Path: "/users/{userId}/posts/{postId}"}
	got := ep.PathPlaceholders()
	if len(got) != 2 || got[0] != "userId" || got[1] != "postId" {
		t.Fatalf("unexpected placeholders: %v", got)
	}
	if placeholders := (Endpoint{Path: "/plain"}).PathPlaceholders(); len(placeholders) != 0 {
		t.Fatalf("expected no placeholders, got %v", placeholders)
	}
}
