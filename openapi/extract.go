package openapi

import (
	"fmt"
	"sort"
	"strings"
)

// Request bodies are read from the first content type present in this list.
var bodyContentTypes = []string{"application/json", "application/xml"}

// Extract walks the paths structure of a parsed description tree and builds
// one Endpoint per path and HTTP verb. A malformed path item never aborts
// the walk: it is skipped and recorded in the returned error list, and the
// partial endpoint set is still returned.
func Extract(tree map[string]any) ([]Endpoint, []error) {
	var endpoints []Endpoint
	var errs []error

	paths, ok := tree["paths"].(map[string]any)
	if !ok {
		return nil, []error{fmt.Errorf("openapi: description has no paths object")}
	}

	for _, path := range sortedKeys(paths) {
		item, ok := paths[path].(map[string]any)
		if !ok {
			errs = append(errs, fmt.Errorf("openapi: path item %q is not an object", path))
			continue
		}
		for _, method := range Methods {
			raw, present := item[method]
			if !present {
				continue
			}
			op, ok := raw.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Errorf("openapi: operation %s %s is not an object", method, path))
				continue
			}
			endpoints = append(endpoints, parseOperation(path, method, op))
		}
	}
	return endpoints, errs
}

func parseOperation(path, method string, op map[string]any) Endpoint {
	ep := Endpoint{
		OperationID: stringField(op, "operationId"),
		Method:      strings.ToUpper(method),
		Path:        path,
		Summary:     stringField(op, "summary"),
		Description: stringField(op, "description"),
		Tags:        stringSlice(op["tags"]),
		Parameters:  parseParameters(op["parameters"]),
		RequestBody: parseRequestBody(op["requestBody"]),
		Responses:   parseResponses(op["responses"]),
	}
	if deprecated, ok := op["deprecated"].(bool); ok {
		ep.Deprecated = deprecated
	}
	return ep
}

// parseParameters classifies declared parameters by location. Entries with
// an unrecognized location are dropped, not errored.
func parseParameters(raw any) Parameters {
	var out Parameters
	list, ok := raw.([]any)
	if !ok {
		return out
	}
	for _, entry := range list {
		param, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		location := stringField(param, "in")
		if location == "" {
			location = "query"
		}
		parsed := Parameter{
			Name:        stringField(param, "name"),
			Description: stringField(param, "description"),
			Type:        parameterType(param),
			Format:      stringField(param, "format"),
		}
		if required, ok := param["required"].(bool); ok {
			parsed.Required = required
		}
		switch location {
		case "path":
			out.Path = append(out.Path, parsed)
		case "query":
			out.Query = append(out.Query, parsed)
		case "header":
			out.Header = append(out.Header, parsed)
		case "cookie":
			out.Cookie = append(out.Cookie, parsed)
		}
	}
	return out
}

// parameterType prefers the 3.x schema type and falls back to the Swagger
// 2.0 inline type.
func parameterType(param map[string]any) string {
	if schema, ok := param["schema"].(map[string]any); ok {
		if t := stringField(schema, "type"); t != "" {
			return t
		}
	}
	return stringField(param, "type")
}

// parseRequestBody reads the first content type found among the priority
// list and flattens its top-level schema properties. Nested or array bodies
// produce no fields; the compiler degrades those to a generic body
// parameter when the body is required.
func parseRequestBody(raw any) *RequestBody {
	bodyMap, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	body := &RequestBody{
		Description: stringField(bodyMap, "description"),
	}
	if required, ok := bodyMap["required"].(bool); ok {
		body.Required = required
	}
	content, ok := bodyMap["content"].(map[string]any)
	if !ok {
		return body
	}
	for _, contentType := range bodyContentTypes {
		media, ok := content[contentType].(map[string]any)
		if !ok {
			continue
		}
		body.ContentType = contentType
		schema, ok := media["schema"].(map[string]any)
		if !ok {
			break
		}
		props, ok := schema["properties"].(map[string]any)
		if !ok {
			break
		}
		for _, name := range sortedKeys(props) {
			prop, ok := props[name].(map[string]any)
			if !ok {
				continue
			}
			body.Fields = append(body.Fields, BodyField{
				Name:        name,
				Description: stringField(prop, "description"),
				Type:        stringField(prop, "type"),
			})
		}
		break
	}
	return body
}

func parseResponses(raw any) map[string]Response {
	responses, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]Response, len(responses))
	for status, entry := range responses {
		response, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		out[status] = Response{Description: stringField(response, "description")}
	}
	return out
}

func stringSlice(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
