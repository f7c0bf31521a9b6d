// Package openai adapts the OpenAI chat-completions backend. Function
// schemas map one-to-one onto the native function-call descriptors, with
// execution metadata stripped before transmission.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/message"
	"github.com/apigent/apigent/providers"
)

// Config controls an OpenAI client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the OpenAI chat completions API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs an OpenAI client from config.
func New(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = providers.DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		client:  client,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "openai" }

// Chat sends one decision turn. The response either carries free text or a
// single function-invocation request.
func (c *Client) Chat(ctx context.Context, req providers.Request) (providers.Response, error) {
	apiKey := strings.TrimSpace(req.Credential)
	if apiKey == "" {
		return providers.Response{}, fmt.Errorf("%w: OpenAI API key required; add your API key in your profile settings", providers.ErrCredentialMissing)
	}

	payload := chatRequest{
		Model:       req.Model,
		Messages:    toWireMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if len(req.Functions) > 0 {
		payload.Functions = toWireFunctions(req.Functions)
		payload.FunctionCall = "auto"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return providers.Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return providers.Response{}, providers.Unreachable("openai", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Response{}, providers.Unreachable("openai", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providers.Response{}, providers.Rejected("openai", resp.StatusCode, truncateBody(data))
	}
	return parseResponse(data), nil
}

// parseResponse reads the first choice defensively. Malformed function-call
// argument JSON degrades to an empty argument object rather than failing
// the turn.
func parseResponse(data []byte) providers.Response {
	msg := gjson.GetBytes(data, "choices.0.message")
	out := providers.Response{Content: msg.Get("content").String()}

	call := msg.Get("function_call")
	if !call.Exists() {
		return out
	}
	name := call.Get("name").String()
	if name == "" {
		return out
	}
	arguments := map[string]any{}
	if raw := call.Get("arguments").String(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
			arguments = map[string]any{}
		}
	}
	out.FunctionCall = &agent.FunctionCall{Name: name, Arguments: arguments}
	return out
}

func toWireMessages(messages []message.Message) []wireMessage {
	out := make([]wireMessage, 0, len(messages))
	for _, msg := range messages {
		wire := wireMessage{Role: msg.Role}
		switch msg.Role {
		case message.RoleFunction:
			wire.Name = msg.Name
			wire.Content = &msg.Content
		case message.RoleAssistant:
			if msg.FunctionCall != nil {
				wire.FunctionCall = &wireFunctionCall{
					Name:      msg.FunctionCall.Name,
					Arguments: encodeArguments(msg.FunctionCall.Arguments),
				}
			} else {
				wire.Content = &msg.Content
			}
		default:
			wire.Content = &msg.Content
		}
		out = append(out, wire)
	}
	return out
}

func toWireFunctions(functions []agent.FunctionSchema) []wireFunction {
	out := make([]wireFunction, 0, len(functions))
	for _, fn := range functions {
		out = append(out, wireFunction{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters.JSON(),
		})
	}
	return out
}

func encodeArguments(arguments map[string]any) string {
	if arguments == nil {
		return "{}"
	}
	encoded, err := json.Marshal(arguments)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

func truncateBody(data []byte) string {
	body := strings.TrimSpace(string(data))
	if body == "" {
		return "<empty body>"
	}
	if len(body) > 1200 {
		return body[:1200] + "... (truncated)"
	}
	return body
}

type chatRequest struct {
	Model        string         `json:"model"`
	Messages     []wireMessage  `json:"messages"`
	Temperature  *float64       `json:"temperature,omitempty"`
	MaxTokens    int            `json:"max_tokens,omitempty"`
	Functions    []wireFunction `json:"functions,omitempty"`
	FunctionCall string         `json:"function_call,omitempty"`
}

type wireMessage struct {
	Role         string            `json:"role"`
	Content      *string           `json:"content"`
	Name         string            `json:"name,omitempty"`
	FunctionCall *wireFunctionCall `json:"function_call,omitempty"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}
