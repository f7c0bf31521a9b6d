// Package agent compiles normalized endpoints into the callable-function
// surface a reasoning backend sees: a system preamble plus a set of
// function schemas, each bound back to its source endpoint.
package agent

import "encoding/json"

// Overlay is the per-operation customization applied at compile time,
// keyed by operationId. The zero value keeps the endpoint enabled with its
// own summary and description.
type Overlay struct {
	Description string
	Disabled    bool
}

// Property is one entry in a function parameter schema.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// ParameterSchema is the object schema exposed for a function's arguments.
// It is never empty: a function with no parameters carries a single
// placeholder property so backends that require at least one property in an
// object schema are never handed an empty set.
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// JSON renders the schema as a JSON object. The required list is always
// present, even when empty.
func (s ParameterSchema) JSON() json.RawMessage {
	required := s.Required
	if required == nil {
		required = []string{}
	}
	payload, _ := json.Marshal(ParameterSchema{
		Type:       s.Type,
		Properties: s.Properties,
		Required:   required,
	})
	return payload
}

// Binding links a function schema back to its source endpoint and owning
// document. It is private execution metadata, stripped before anything is
// sent to a reasoning backend.
type Binding struct {
	DocumentID  string
	EndpointID  string
	Method      string
	Path        string
	OperationID string
}

// FunctionSchema is one callable unit exposed to a reasoning backend.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  ParameterSchema
	Binding     Binding
}

// FunctionCall is a neutral function-invocation request produced by a
// provider adapter.
type FunctionCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// FunctionSet indexes compiled function schemas by name.
type FunctionSet struct {
	functions []FunctionSchema
	byName    map[string]FunctionSchema
}

// NewFunctionSet builds a set from compiled schemas.
func NewFunctionSet(functions []FunctionSchema) *FunctionSet {
	byName := make(map[string]FunctionSchema, len(functions))
	for _, fn := range functions {
		byName[fn.Name] = fn
	}
	return &FunctionSet{functions: functions, byName: byName}
}

// Lookup finds a schema by exact name.
func (s *FunctionSet) Lookup(name string) (FunctionSchema, bool) {
	fn, ok := s.byName[name]
	return fn, ok
}

// All returns the schemas in compile order.
func (s *FunctionSet) All() []FunctionSchema {
	out := make([]FunctionSchema, len(s.functions))
	copy(out, s.functions)
	return out
}

// Len reports the number of functions in the set.
func (s *FunctionSet) Len() int {
	return len(s.functions)
}
