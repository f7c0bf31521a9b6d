// Package anthropic adapts the Anthropic Messages backend. The leading
// system message travels on the dedicated system channel and function
// schemas map onto tool descriptors with input_schema naming.
//
// Only the first tool-use block of a response is honored; additional
// concurrent tool requests in the same turn are dropped. This is a known
// capability boundary of the adapter.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/message"
	"github.com/apigent/apigent/providers"
)

// Config controls an Anthropic client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the Anthropic Messages API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New constructs an Anthropic client from config.
func New(cfg Config) *Client {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = providers.DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimSpace(cfg.BaseURL),
		client:  client,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string { return "anthropic" }

// Chat sends one decision turn to the Messages API.
func (c *Client) Chat(ctx context.Context, req providers.Request) (providers.Response, error) {
	apiKey := strings.TrimSpace(req.Credential)
	if apiKey == "" {
		return providers.Response{}, fmt.Errorf("%w: Anthropic API key required; add your API key in your profile settings", providers.ErrCredentialMissing)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(c.client),
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	client := sdk.NewClient(opts...)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	system, conversation := splitSystem(req.Messages)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toSDKMessages(conversation),
	}
	if system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if len(req.Functions) > 0 {
		params.Tools = toSDKTools(req.Functions)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return providers.Response{}, providers.Rejected("anthropic", apiErr.StatusCode, apiErr.Error())
		}
		return providers.Response{}, providers.Unreachable("anthropic", err)
	}
	return parseResponse(msg), nil
}

// splitSystem extracts the leading system message into the dedicated
// channel and returns the rest of the conversation.
func splitSystem(messages []message.Message) (string, []message.Message) {
	if len(messages) > 0 && messages[0].Role == message.RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}

func toSDKMessages(messages []message.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case message.RoleUser, message.RoleSystem:
			if strings.TrimSpace(msg.Content) != "" {
				out = append(out, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
			}
		case message.RoleAssistant:
			blocks := make([]sdk.ContentBlockParamUnion, 0, 2)
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, sdk.NewTextBlock(msg.Content))
			}
			if call := msg.FunctionCall; call != nil {
				id := call.ID
				if id == "" {
					id = call.Name
				}
				blocks = append(blocks, sdk.NewToolUseBlock(id, decodeArguments(call.Arguments), call.Name))
			}
			if len(blocks) > 0 {
				out = append(out, sdk.NewAssistantMessage(blocks...))
			}
		case message.RoleFunction:
			// tool_use_id must echo the id of the tool-use block it
			// answers or the backend rejects the history.
			id := strings.TrimSpace(msg.CallID)
			if id == "" {
				id = strings.TrimSpace(msg.Name)
			}
			out = append(out, sdk.NewUserMessage(sdk.NewToolResultBlock(id, msg.Content, false)))
		}
	}
	return out
}

func toSDKTools(functions []agent.FunctionSchema) []sdk.ToolUnionParam {
	out := make([]sdk.ToolUnionParam, 0, len(functions))
	for _, fn := range functions {
		properties := make(map[string]any, len(fn.Parameters.Properties))
		for name, prop := range fn.Parameters.Properties {
			properties[name] = prop
		}
		required := fn.Parameters.Required
		if required == nil {
			required = []string{}
		}
		param := sdk.ToolParam{
			Name: fn.Name,
			InputSchema: sdk.ToolInputSchemaParam{
				Properties: properties,
				Required:   required,
			},
		}
		if desc := strings.TrimSpace(fn.Description); desc != "" {
			param.Description = sdk.String(desc)
		}
		out = append(out, sdk.ToolUnionParam{OfTool: &param})
	}
	return out
}

// parseResponse concatenates text blocks and maps the first tool-use block
// back to a neutral function-invocation request.
func parseResponse(msg *sdk.Message) providers.Response {
	var text strings.Builder
	var call *agent.FunctionCall
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case sdk.TextBlock:
			text.WriteString(variant.Text)
		case sdk.ToolUseBlock:
			if call != nil {
				continue
			}
			arguments := map[string]any{}
			if len(variant.Input) > 0 {
				if err := json.Unmarshal(variant.Input, &arguments); err != nil {
					arguments = map[string]any{}
				}
			}
			call = &agent.FunctionCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: arguments,
			}
		}
	}
	return providers.Response{
		Content:      strings.TrimSpace(text.String()),
		FunctionCall: call,
	}
}

func decodeArguments(arguments map[string]any) any {
	if arguments == nil {
		return map[string]any{}
	}
	return arguments
}
