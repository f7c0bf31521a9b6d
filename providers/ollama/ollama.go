// Package ollama adapts a local Ollama daemon. Ollama has no native
// function calling, so compiled functions are serialized into the system
// prompt as descriptive text; the adapter never produces a structured
// invocation, and agents on this backend can describe actions but not
// execute them. That is an explicit capability boundary, not a bug.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/message"
	"github.com/apigent/apigent/providers"
)

// Config controls an Ollama client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls a local Ollama chat endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs an Ollama client from config.
func New(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = "http://localhost:11434"
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
func (c *Client) Name() string { return "ollama" }

// Chat sends one decision turn. No credential is needed for a local daemon.
func (c *Client) Chat(ctx context.Context, req providers.Request) (providers.Response, error) {
	payload := chatRequest{
		Model:    req.Model,
		Messages: toWireMessages(req.Messages, req.Functions),
		Stream:   false,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return providers.Response{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return providers.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return providers.Response{}, providers.Unreachable("ollama", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.Response{}, providers.Unreachable("ollama", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return providers.Response{}, providers.Rejected("ollama", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return providers.Response{
		Content: gjson.GetBytes(data, "message.content").String(),
	}, nil
}

// toWireMessages maps the neutral conversation onto Ollama roles and folds
// the function list into the leading system message.
func toWireMessages(messages []message.Message, functions []agent.FunctionSchema) []wireMessage {
	out := make([]wireMessage, 0, len(messages)+1)
	injection := functionInjection(functions)

	injected := false
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleSystem:
			content := msg.Content
			if !injected {
				content += injection
				injected = true
			}
			out = append(out, wireMessage{Role: "system", Content: content})
		case message.RoleFunction:
			out = append(out, wireMessage{Role: "tool", Content: msg.Content})
		default:
			out = append(out, wireMessage{Role: msg.Role, Content: msg.Content})
		}
	}
	if !injected && injection != "" {
		out = append([]wireMessage{{
			Role:    "system",
			Content: "You are a helpful assistant." + injection,
		}}, out...)
	}
	return out
}

func functionInjection(functions []agent.FunctionSchema) string {
	if len(functions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nAvailable functions:\n")
	for _, fn := range functions {
		b.WriteString("\n- " + fn.Name + ": " + fn.Description)
	}
	return b.String()
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
