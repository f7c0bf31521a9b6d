// Package openapi holds the normalized, in-memory model of a remote API
// description and the extraction pass that produces it from a parsed
// document tree. Downstream packages only ever see these types, never the
// raw tree.
package openapi

import "strings"

// HTTP verbs recognized during extraction, in walk order.
var Methods = []string{"get", "post", "put", "delete", "patch", "options", "head"}

// Document carries the description-level facts an agent needs: identity,
// declared base URL, and the OpenAPI flavor it was written against.
type Document struct {
	Title          string
	Description    string
	Version        string
	OpenAPIVersion string
	BaseURL        string
}

// Parameter is one declared operation parameter. Type and Format hold the
// source vocabulary (Swagger 2.0 inline types or 3.x schema types); mapping
// to the reduced function-schema vocabulary happens at compile time.
type Parameter struct {
	Name        string
	Description string
	Required    bool
	Type        string
	Format      string
}

// Parameters groups declared parameters by location. Unrecognized locations
// are dropped during extraction.
type Parameters struct {
	Path   []Parameter
	Query  []Parameter
	Header []Parameter
	Cookie []Parameter
}

// BodyField is one flattened top-level property of a request body schema.
type BodyField struct {
	Name        string
	Description string
	Type        string
}

// RequestBody is the simplified request-body shape: the first content type
// found among the priority list, flattened to its top-level properties.
// Fields may be empty for nested or array bodies.
type RequestBody struct {
	Description string
	Required    bool
	ContentType string
	Fields      []BodyField
}

// Response records a declared response. Informational only.
type Response struct {
	Description string
}

// Endpoint is the immutable normalized representation of one remote
// operation.
type Endpoint struct {
	OperationID string
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  Parameters
	RequestBody *RequestBody
	Responses   map[string]Response
}

// ID returns the stable identifier used to reference this endpoint from an
// execution binding. Method plus path template is unique within a document.
func (e Endpoint) ID() string {
	return e.Method + " " + e.Path
}

// PathPlaceholders returns the {name} tokens in the path template, in order.
func (e Endpoint) PathPlaceholders() []string {
	var names []string
	rest := e.Path
	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			return names
		}
		end := strings.Index(rest[open:], "}")
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}
