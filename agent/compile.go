package agent

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/apigent/apigent/openapi"
)

// Compiler turns endpoints and overlays into a conversational profile. It
// is a stateless value; compiling twice with identical inputs yields
// identical output.
type Compiler struct{}

// Input is one compilation request: a document, its extracted endpoints and
// the optional per-operation overlays.
type Input struct {
	DocumentID string
	Document   openapi.Document
	Endpoints  []openapi.Endpoint
	Overlays   map[string]Overlay
}

// Profile is the compiled conversational surface of one agent: the system
// preamble plus the callable-function set. Errors accumulates non-fatal
// compilation failures; the profile carries the best-effort partial result
// alongside them.
type Profile struct {
	SystemPrompt string
	Functions    []FunctionSchema
	Warnings     []string
	Errors       []error
}

// Compile builds the profile for an agent. Endpoints whose overlay resolves
// to disabled are excluded from both the function set and the preamble
// enumeration but stay in the registry for later re-enablement. A malformed
// endpoint is skipped and recorded, never fatal.
func (Compiler) Compile(in Input) Profile {
	var profile Profile

	enabled := make([]openapi.Endpoint, 0, len(in.Endpoints))
	for _, ep := range in.Endpoints {
		if overlay, ok := in.Overlays[ep.OperationID]; ok && ep.OperationID != "" && overlay.Disabled {
			continue
		}
		enabled = append(enabled, ep)
	}
	if len(enabled) == 0 {
		profile.Errors = append(profile.Errors, ErrNoEndpoints)
		return profile
	}

	profile.SystemPrompt = buildSystemPrompt(in.Document, enabled)

	seen := make(map[string]int, len(enabled))
	for _, ep := range enabled {
		if err := checkPlaceholders(ep); err != nil {
			profile.Errors = append(profile.Errors, err)
			continue
		}

		name := FunctionName(ep)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			disambiguated := fmt.Sprintf("%s_%d", name, n+1)
			profile.Warnings = append(profile.Warnings,
				fmt.Sprintf("function name %q collides for %s %s; using %q", name, ep.Method, ep.Path, disambiguated))
			name = disambiguated
		} else {
			seen[name] = 1
		}

		schema := buildParameterSchema(ep)
		if err := checkSchema(schema); err != nil {
			profile.Errors = append(profile.Errors, fmt.Errorf("%s %s: parameter schema invalid: %w", ep.Method, ep.Path, err))
			continue
		}

		var overlay Overlay
		if ep.OperationID != "" {
			overlay = in.Overlays[ep.OperationID]
		}
		profile.Functions = append(profile.Functions, FunctionSchema{
			Name:        name,
			Description: functionDescription(ep, overlay),
			Parameters:  schema,
			Binding: Binding{
				DocumentID:  in.DocumentID,
				EndpointID:  ep.ID(),
				Method:      ep.Method,
				Path:        ep.Path,
				OperationID: ep.OperationID,
			},
		})
	}
	return profile
}

// checkPlaceholders enforces the path-template invariant: every {name}
// token must correspond to exactly one declared path parameter. This is a
// configuration error surfaced at generation time, not at call time.
func checkPlaceholders(ep openapi.Endpoint) error {
	declared := make(map[string]bool, len(ep.Parameters.Path))
	for _, p := range ep.Parameters.Path {
		declared[p.Name] = true
	}
	for _, name := range ep.PathPlaceholders() {
		if !declared[name] {
			return fmt.Errorf("%s %s: path placeholder {%s} has no path parameter", ep.Method, ep.Path, name)
		}
	}
	return nil
}

// FunctionName derives the stable function name for an endpoint. The
// endpoint's own operationId wins; otherwise the name is built from the
// method and path, with each {param} placeholder replaced by "by_param".
func FunctionName(ep openapi.Endpoint) string {
	if ep.OperationID != "" {
		return ep.OperationID
	}
	parts := strings.Split(strings.Trim(ep.Path, "/"), "/")
	clean := make([]string, 0, len(parts)*2)
	for _, part := range parts {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			clean = append(clean, "by", part[1:len(part)-1])
		} else {
			clean = append(clean, part)
		}
	}
	name := strings.ToLower(ep.Method) + "_" + strings.Join(clean, "_")
	name = strings.ReplaceAll(name, "-", "_")
	return strings.ReplaceAll(name, " ", "_")
}

func functionDescription(ep openapi.Endpoint, overlay Overlay) string {
	description := overlay.Description
	if description == "" {
		description = ep.Summary
	}
	if description == "" {
		description = ep.Description
	}
	if description == "" {
		description = ep.Method + " " + ep.Path
	}
	if ep.Deprecated {
		description += " (DEPRECATED - use alternative if available)"
	}
	return description
}

// buildParameterSchema assembles the argument schema in precedence order:
// path parameters (always required), query parameters (required per their
// declared flag), then flattened body fields. A required body with no flat
// fields degrades to a single required generic body object.
func buildParameterSchema(ep openapi.Endpoint) ParameterSchema {
	properties := make(map[string]Property)
	required := []string{}

	for _, param := range ep.Parameters.Path {
		if param.Name == "" {
			continue
		}
		properties[param.Name] = Property{
			Type:        mapType(param.Type),
			Description: paramDescription(param, "Path parameter"),
		}
		required = append(required, param.Name)
	}
	for _, param := range ep.Parameters.Query {
		if param.Name == "" {
			continue
		}
		properties[param.Name] = Property{
			Type:        mapType(param.Type),
			Description: paramDescription(param, "Query parameter"),
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}
	if body := ep.RequestBody; body != nil {
		for _, field := range body.Fields {
			description := field.Description
			if description == "" {
				description = "Body field: " + field.Name
			}
			properties[field.Name] = Property{
				Type:        mapType(field.Type),
				Description: description,
			}
		}
		if body.Required && len(body.Fields) == 0 {
			if _, exists := properties["body"]; !exists {
				properties["body"] = Property{
					Type:        "object",
					Description: "Request body",
				}
				required = append(required, "body")
			}
		}
	}

	// Backends that require at least one property must never see an empty
	// object schema.
	if len(properties) == 0 {
		properties["_no_params"] = Property{
			Type:        "string",
			Description: "This endpoint requires no parameters",
			Enum:        []string{"none"},
		}
	}

	return ParameterSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

func paramDescription(param openapi.Parameter, kind string) string {
	if param.Description != "" {
		return param.Description
	}
	return kind + ": " + param.Name
}

// mapType reduces the source type vocabulary to the function-schema set.
// Unknown types default to string.
var typeMapping = map[string]string{
	"integer": "number",
	"int":     "number",
	"long":    "number",
	"float":   "number",
	"double":  "number",
	"number":  "number",
	"string":  "string",
	"boolean": "boolean",
	"bool":    "boolean",
	"array":   "array",
	"object":  "object",
}

func mapType(sourceType string) string {
	if mapped, ok := typeMapping[sourceType]; ok {
		return mapped
	}
	return "string"
}

// checkSchema verifies the generated parameter schema is itself a loadable
// JSON Schema, so a malformed description fails at generation time rather
// than on the first backend call.
func checkSchema(schema ParameterSchema) error {
	_, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(string(schema.JSON())))
	return err
}

// buildSystemPrompt renders the capability brief: what the API is, how the
// agent should behave, and one line per enabled endpoint.
func buildSystemPrompt(doc openapi.Document, endpoints []openapi.Endpoint) string {
	apiName := doc.Title
	if doc.Version != "" {
		apiName = fmt.Sprintf("%s (v%s)", doc.Title, doc.Version)
	}
	description := doc.Description
	if description == "" {
		description = "No description available"
	}
	base := doc.BaseURL
	if base == "" {
		base = "Not specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an AI assistant that can interact with the %s API.\n\n", apiName)
	b.WriteString("API Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", doc.Title)
	fmt.Fprintf(&b, "- Description: %s\n", description)
	fmt.Fprintf(&b, "- Base URL: %s\n", base)
	fmt.Fprintf(&b, "- OpenAPI Version: %s\n\n", doc.OpenAPIVersion)
	b.WriteString("Your capabilities:\n")
	fmt.Fprintf(&b, "You have access to %d API endpoints that you can call to help users. When a user asks you to do something that requires API interaction, you should:\n\n", len(endpoints))
	b.WriteString("1. Understand the user's intent\n")
	b.WriteString("2. Determine which API endpoint(s) to call\n")
	b.WriteString("3. Extract the necessary parameters from the user's request\n")
	b.WriteString("4. Call the appropriate function(s)\n")
	b.WriteString("5. Provide a direct, concise response with the results\n\n")
	b.WriteString("Important guidelines:\n")
	b.WriteString("- Call the API functions directly without announcing what you're going to do\n")
	b.WriteString("- Provide results immediately and concisely\n")
	b.WriteString("- If you need more information from the user, ask for it\n")
	b.WriteString("- Handle errors gracefully and explain what went wrong\n")
	b.WriteString("- Never make up or hallucinate API responses - only use actual data from the API calls\n\n")
	b.WriteString("Available endpoints:\n")
	for _, ep := range endpoints {
		tags := ""
		if len(ep.Tags) > 0 {
			tags = " [" + strings.Join(ep.Tags, ", ") + "]"
		}
		summary := ep.Summary
		if summary == "" {
			summary = "No description"
		}
		fmt.Fprintf(&b, "\n- %s %s%s: %s", ep.Method, ep.Path, tags, summary)
	}
	return b.String()
}
