package executor

import (
	"encoding/json"
	"fmt"
)

// FailureKind classifies how a remote call failed.
type FailureKind string

const (
	FailureNone       FailureKind = ""
	FailureConnection FailureKind = "connection"
	FailureTimeout    FailureKind = "timeout"
	FailureHTTP       FailureKind = "http"
	FailureBadRequest FailureKind = "malformed_request"
)

// Result is the normalized outcome of one synthesized remote call. A
// non-2xx status with a structured error payload is a successful round trip
// carrying an application-level failure: Success is false but Data still
// holds the parsed body.
type Result struct {
	Success    bool
	StatusCode int
	URL        string
	Method     string
	Data       any
	Err        string
	Failure    FailureKind
}

// FormatForModel renders a result the way the reasoning backend consumes
// it: pretty-printed JSON for structured data, the raw text otherwise, and
// a compact error line for failures.
func FormatForModel(r Result) string {
	if !r.Success {
		detail := r.Err
		if detail == "" {
			detail = "Unknown error"
		}
		return fmt.Sprintf("Error %d: %s", r.StatusCode, detail)
	}
	switch data := r.Data.(type) {
	case map[string]any, []any:
		pretty, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Sprint(data)
		}
		return string(pretty)
	case string:
		return data
	default:
		return fmt.Sprint(data)
	}
}
