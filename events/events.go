// Package events carries agent lifecycle updates out of the conversation
// loop without coupling it to any particular logger or UI.
package events

import (
	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/executor"
)

const (
	ConversationStart = "conversation_start"
	ConversationEnd   = "conversation_end"
	TurnStart         = "turn_start"
	TurnEnd           = "turn_end"
	FunctionStart     = "function_execution_start"
	FunctionEnd       = "function_execution_end"
)

// Event captures a simple lifecycle update.
type Event struct {
	Type           string
	ConversationID string
	Content        string
	FunctionCall   *agent.FunctionCall
	Result         *executor.Result
}

// Sink consumes events (logging, UI, tracing).
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }
