// Package message provides the neutral conversation representation shared
// by provider adapters and the orchestrator.
package message

import "github.com/apigent/apigent/agent"

// Role constants for conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Message is one conversation entry. An assistant turn that requested a
// function invocation carries the raw call; the following function turn
// carries the formatted execution result, tagged with the function name and
// the ID of the call it answers. Conversations are append-only within one
// loop execution.
type Message struct {
	Role         string
	Content      string
	Name         string
	CallID       string
	FunctionCall *agent.FunctionCall
}

// System builds a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// User builds a user message.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Assistant builds an assistant text message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// FunctionResult builds a function-result message answering the call with
// the given ID.
func FunctionResult(callID, name, content string) Message {
	return Message{Role: RoleFunction, CallID: callID, Name: name, Content: content}
}
