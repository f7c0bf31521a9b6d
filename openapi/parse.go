package openapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseTree deserializes an API description from its source text.
// Supported formats are "json", "yaml" and "yml".
func ParseTree(content []byte, format string) (map[string]any, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		var tree map[string]any
		if err := json.Unmarshal(content, &tree); err != nil {
			return nil, fmt.Errorf("openapi: invalid JSON: %w", err)
		}
		return tree, nil
	case "yaml", "yml":
		var tree map[string]any
		if err := yaml.Unmarshal(content, &tree); err != nil {
			return nil, fmt.Errorf("openapi: invalid YAML: %w", err)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("openapi: unsupported file format: %s", format)
	}
}

// DocumentInfo reads the description-level facts out of a parsed tree:
// title, description, API version, OpenAPI version and base URL.
func DocumentInfo(tree map[string]any) Document {
	doc := Document{
		Title:          "Untitled API",
		Version:        "1.0.0",
		OpenAPIVersion: specVersion(tree),
		BaseURL:        baseURL(tree),
	}
	if info, ok := tree["info"].(map[string]any); ok {
		if title := stringField(info, "title"); title != "" {
			doc.Title = title
		}
		doc.Description = stringField(info, "description")
		if version := stringField(info, "version"); version != "" {
			doc.Version = version
		}
	}
	return doc
}

// specVersion returns the declared OpenAPI 3.x or Swagger 2.0 version.
func specVersion(tree map[string]any) string {
	if v := stringField(tree, "openapi"); v != "" {
		return v
	}
	return stringField(tree, "swagger")
}

// baseURL resolves the declared base URL. OpenAPI 3.x takes the first
// server entry; Swagger 2.0 assembles scheme, host and basePath.
func baseURL(tree map[string]any) string {
	if servers, ok := tree["servers"].([]any); ok && len(servers) > 0 {
		if server, ok := servers[0].(map[string]any); ok {
			return stringField(server, "url")
		}
	}
	host := stringField(tree, "host")
	if host == "" {
		return ""
	}
	scheme := "https"
	if schemes, ok := tree["schemes"].([]any); ok && len(schemes) > 0 {
		if s, ok := schemes[0].(string); ok && s != "" {
			scheme = s
		}
	}
	return scheme + "://" + host + stringField(tree, "basePath")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
