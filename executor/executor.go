// Package executor resolves neutral function-invocation requests to their
// source endpoints, synthesizes the concrete HTTP requests and dispatches
// them against the remote API. Every network failure mode is folded into
// the Result; only resolution failures surface as errors.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/openapi"
)

// DefaultTimeout bounds one remote API call.
const DefaultTimeout = 30 * time.Second

const userAgent = "apigent/1.0"

// errorDetailLimit caps how much of a failing response body is copied into
// the error string.
const errorDetailLimit = 200

// Methods that accept a request body.
var bodyMethods = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

var supportedMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Resolver recovers the source endpoint and owning document for an
// execution binding.
type Resolver interface {
	Resolve(b agent.Binding) (openapi.Endpoint, openapi.Document, error)
}

// Config controls an Engine.
type Config struct {
	Timeout    time.Duration
	HTTPClient *http.Client

	// OAuth configures a client-credentials token source for remote APIs
	// secured that way. When set, outbound calls carry its bearer token.
	OAuth *clientcredentials.Config
}

// Engine executes function calls as real outbound HTTP requests.
type Engine struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs an Engine from config.
func New(cfg Config) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		if cfg.OAuth != nil {
			client = cfg.OAuth.Client(context.Background())
		} else {
			client = &http.Client{}
		}
		client.Timeout = timeout
	}
	return &Engine{client: client, timeout: timeout}
}

// Execute resolves a function call and performs the remote request. The
// returned error covers only resolution failures (unknown function, stale
// binding); everything that happens on the wire is encoded in the Result.
func (e *Engine) Execute(ctx context.Context, set *agent.FunctionSet, resolver Resolver, call agent.FunctionCall) (Result, error) {
	fn, ok := set.Lookup(call.Name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q is not in the agent's function set", agent.ErrFunctionNotFound, call.Name)
	}
	ep, doc, err := resolver.Resolve(fn.Binding)
	if err != nil {
		return Result{}, err
	}
	return e.dispatch(ctx, ep, doc, call.Arguments), nil
}

// dispatch synthesizes and performs one HTTP request. All failures come
// back inside the Result.
func (e *Engine) dispatch(ctx context.Context, ep openapi.Endpoint, doc openapi.Document, arguments map[string]any) Result {
	method := strings.ToUpper(ep.Method)
	if !supportedMethods[method] {
		return Result{
			Method:  method,
			Failure: FailureBadRequest,
			Err:     "unsupported HTTP method: " + method,
		}
	}

	path, pathParams := substitutePath(ep, arguments)
	target := joinURL(doc.BaseURL, path)
	if rest := residualPlaceholder(path); rest != "" {
		return Result{
			Method:  method,
			URL:     target,
			Failure: FailureBadRequest,
			Err:     fmt.Sprintf("unresolved path placeholder {%s} in %s", rest, path),
		}
	}

	query := url.Values{}
	for _, param := range ep.Parameters.Query {
		if value, ok := arguments[param.Name]; ok && param.Name != "" {
			query.Set(param.Name, fmt.Sprint(value))
		}
	}

	var bodyReader io.Reader
	if bodyMethods[method] && ep.RequestBody != nil {
		body := synthesizeBody(arguments, pathParams, query)
		if body != nil {
			encoded, err := json.Marshal(body)
			if err != nil {
				return Result{
					Method:  method,
					URL:     target,
					Failure: FailureBadRequest,
					Err:     "could not encode request body: " + err.Error(),
				}
			}
			bodyReader = bytes.NewReader(encoded)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, bodyReader)
	if err != nil {
		return Result{
			Method:  method,
			URL:     target,
			Failure: FailureBadRequest,
			Err:     "could not build request: " + err.Error(),
		}
	}
	if encoded := query.Encode(); encoded != "" {
		req.URL.RawQuery = encoded
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for _, param := range ep.Parameters.Header {
		if value, ok := arguments[param.Name]; ok && param.Name != "" {
			req.Header.Set(param.Name, fmt.Sprint(value))
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return transportFailure(method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(method, target, err)
	}

	result := Result{
		Success:    true,
		StatusCode: resp.StatusCode,
		URL:        req.URL.String(),
		Method:     method,
		Data:       decodeBody(raw),
	}
	if resp.StatusCode >= 400 {
		result.Success = false
		result.Failure = FailureHTTP
		result.Err = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateDetail(raw))
	}
	return result
}

// substitutePath replaces every declared path parameter present in the
// arguments and reports which argument names were consumed.
func substitutePath(ep openapi.Endpoint, arguments map[string]any) (string, map[string]bool) {
	path := ep.Path
	consumed := make(map[string]bool)
	for _, param := range ep.Parameters.Path {
		value, ok := arguments[param.Name]
		if !ok || param.Name == "" {
			continue
		}
		path = strings.ReplaceAll(path, "{"+param.Name+"}", fmt.Sprint(value))
		consumed[param.Name] = true
	}
	return path, consumed
}

func residualPlaceholder(path string) string {
	open := strings.Index(path, "{")
	if open < 0 {
		return ""
	}
	end := strings.Index(path[open:], "}")
	if end < 0 {
		return ""
	}
	return path[open+1 : open+end]
}

// synthesizeBody builds the request body: a literal body argument wins;
// otherwise every argument not consumed by path or query substitution and
// not prefixed with an underscore becomes a body field.
func synthesizeBody(arguments map[string]any, pathParams map[string]bool, query url.Values) any {
	if body, ok := arguments["body"]; ok {
		return body
	}
	body := make(map[string]any)
	for key, value := range arguments {
		if pathParams[key] || query.Has(key) || strings.HasPrefix(key, "_") {
			continue
		}
		body[key] = value
	}
	if len(body) == 0 {
		return nil
	}
	return body
}

// joinURL joins the document base URL and the substituted path with
// trailing/leading-slash normalization. With no base URL the bare path is
// used; the dispatch failure that follows is a configuration error reported
// through the Result.
func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func transportFailure(method, target string, err error) Result {
	if isTimeout(err) {
		return Result{
			StatusCode: http.StatusRequestTimeout,
			URL:        target,
			Method:     method,
			Failure:    FailureTimeout,
			Err:        "request timeout - the API took too long to respond",
		}
	}
	return Result{
		URL:     target,
		Method:  method,
		Failure: FailureConnection,
		Err:     "could not connect to " + target,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// decodeBody parses structured response content when possible and retains
// opaque text otherwise.
func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ""
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return string(raw)
	}
	return data
}

func truncateDetail(raw []byte) string {
	body := string(raw)
	if len(body) > errorDetailLimit {
		return body[:errorDetailLimit]
	}
	return body
}
