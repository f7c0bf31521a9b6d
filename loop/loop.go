// Package loop drives the bounded multi-turn exchange between a reasoning
// backend and the function execution engine. Turns are strictly
// sequential; each depends on the previous result.
package loop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/events"
	"github.com/apigent/apigent/executor"
	"github.com/apigent/apigent/message"
	"github.com/apigent/apigent/providers"
)

// FallbackReply is returned when the backend produced no usable final text.
const FallbackReply = "I completed the action but couldn't generate a response."

// Config controls the loop behavior.
type Config struct {
	Provider      providers.Provider
	Engine        *executor.Engine
	Resolver      executor.Resolver
	Events        events.Sink
	MaxIterations int

	Model       string
	Credential  string
	MaxTokens   int
	Temperature *float64
}

// Request is one conversational exchange.
type Request struct {
	ConversationID string
	SystemPrompt   string
	UserMessage    string
	Functions      []agent.FunctionSchema
}

// FunctionCallRecord traces one function invocation attempt.
type FunctionCallRecord struct {
	Name      string
	Arguments map[string]any
	Success   bool
	Duration  time.Duration
	Err       string
}

// HTTPCallRecord traces one underlying remote HTTP call.
type HTTPCallRecord struct {
	Method     string
	URL        string
	StatusCode int
	Success    bool
}

// Result is the outcome of one exchange: the final assistant text plus the
// ordered record of everything the agent did on the way there.
type Result struct {
	ConversationID string
	Reply          string
	Conversation   []message.Message
	FunctionCalls  []FunctionCallRecord
	HTTPCalls      []HTTPCallRecord
	Iterations     int
}

// Runner executes bounded conversation exchanges.
type Runner struct {
	cfg Config
}

// New creates a Runner. MaxIterations defaults to 10.
func New(cfg Config) *Runner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	return &Runner{cfg: cfg}
}

// Run seeds the conversation with the compiled system preamble and the
// user's message, then cycles: backend decision, function dispatch, result
// append. The iteration ceiling forces termination even if the backend
// never stops requesting functions.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	if r.cfg.Provider == nil {
		return Result{}, errors.New("loop: provider is required")
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	result := Result{ConversationID: conversationID}

	emit := r.emitter(conversationID)
	emit(events.Event{Type: events.ConversationStart})
	defer emit(events.Event{Type: events.ConversationEnd})

	conversation := []message.Message{
		message.System(req.SystemPrompt),
		message.User(req.UserMessage),
	}
	set := agent.NewFunctionSet(req.Functions)

	response, err := r.decide(ctx, conversation, req.Functions, emit)
	if err != nil {
		return Result{}, err
	}

	for response.FunctionCall != nil && result.Iterations < r.cfg.MaxIterations {
		result.Iterations++

		call := *response.FunctionCall
		if call.ID == "" {
			call.ID = uuid.NewString()
		}
		emit(events.Event{Type: events.FunctionStart, FunctionCall: &call})

		started := time.Now()
		formatted, record, httpRecord, execResult := r.dispatch(ctx, set, call)
		record.Duration = time.Since(started)

		result.FunctionCalls = append(result.FunctionCalls, record)
		if httpRecord != nil {
			result.HTTPCalls = append(result.HTTPCalls, *httpRecord)
		}
		emit(events.Event{Type: events.FunctionEnd, Content: formatted, Result: execResult})

		conversation = append(conversation,
			message.Message{Role: message.RoleAssistant, FunctionCall: &call},
			message.FunctionResult(call.ID, call.Name, formatted),
		)

		response, err = r.decide(ctx, conversation, req.Functions, emit)
		if err != nil {
			return Result{}, err
		}
	}

	reply := strings.TrimSpace(response.Content)
	if reply == "" {
		reply = FallbackReply
	}
	conversation = append(conversation, message.Assistant(reply))

	result.Reply = reply
	result.Conversation = conversation
	return result, nil
}

func (r *Runner) decide(ctx context.Context, conversation []message.Message, functions []agent.FunctionSchema, emit func(events.Event)) (providers.Response, error) {
	emit(events.Event{Type: events.TurnStart})
	defer emit(events.Event{Type: events.TurnEnd})

	return r.cfg.Provider.Chat(ctx, providers.Request{
		Model:       r.cfg.Model,
		Credential:  r.cfg.Credential,
		Messages:    conversation,
		Functions:   functions,
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
}

// dispatch executes one function call. Resolution errors are narrated back
// into the conversation so the backend can adapt; they never abort the
// turn.
func (r *Runner) dispatch(ctx context.Context, set *agent.FunctionSet, call agent.FunctionCall) (string, FunctionCallRecord, *HTTPCallRecord, *executor.Result) {
	record := FunctionCallRecord{Name: call.Name, Arguments: call.Arguments}

	if r.cfg.Engine == nil || r.cfg.Resolver == nil {
		record.Err = "no execution engine configured"
		return "Error executing function: no execution engine configured", record, nil, nil
	}

	execResult, err := r.cfg.Engine.Execute(ctx, set, r.cfg.Resolver, call)
	if err != nil {
		record.Err = err.Error()
		return "Error executing function: " + err.Error(), record, nil, nil
	}

	record.Success = execResult.Success
	record.Err = execResult.Err

	// A malformed request never reaches the wire, so there is no HTTP call
	// to record.
	var httpRecord *HTTPCallRecord
	if execResult.Failure != executor.FailureBadRequest {
		httpRecord = &HTTPCallRecord{
			Method:     execResult.Method,
			URL:        execResult.URL,
			StatusCode: execResult.StatusCode,
			Success:    execResult.Success,
		}
	}
	return executor.FormatForModel(execResult), record, httpRecord, &execResult
}

func (r *Runner) emitter(conversationID string) func(events.Event) {
	return func(e events.Event) {
		if r.cfg.Events == nil {
			return
		}
		e.ConversationID = conversationID
		r.cfg.Events.Emit(e)
	}
}
