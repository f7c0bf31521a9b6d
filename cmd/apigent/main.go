// Command apigent compiles an OpenAPI description into a conversational
// agent and runs one exchange against it from the terminal.
//
//	apigent <description.json|yaml> "<message>"
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/apigent/apigent/agent"
	"github.com/apigent/apigent/events"
	"github.com/apigent/apigent/executor"
	"github.com/apigent/apigent/loop"
	"github.com/apigent/apigent/openapi"
	"github.com/apigent/apigent/providers"
	"github.com/apigent/apigent/providers/anthropic"
	"github.com/apigent/apigent/providers/ollama"
	"github.com/apigent/apigent/providers/openai"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "apigent:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	if len(os.Args) != 3 {
		return fmt.Errorf("usage: apigent <description.json|yaml> <message>")
	}
	docPath, userMessage := os.Args[1], os.Args[2]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	content, err := os.ReadFile(docPath)
	if err != nil {
		return err
	}
	format := strings.TrimPrefix(filepath.Ext(docPath), ".")
	tree, err := openapi.ParseTree(content, format)
	if err != nil {
		return err
	}

	doc := openapi.DocumentInfo(tree)
	if cfg.BaseURL != "" {
		doc.BaseURL = cfg.BaseURL
	}
	endpoints, extractErrs := openapi.Extract(tree)
	for _, e := range extractErrs {
		fmt.Fprintln(os.Stderr, "apigent: skipped:", e)
	}

	documentID := uuid.NewString()
	registry := agent.NewRegistry()
	if err := registry.AddDocument(documentID, doc, endpoints); err != nil {
		return err
	}

	profile := agent.Compiler{}.Compile(agent.Input{
		DocumentID: documentID,
		Document:   doc,
		Endpoints:  endpoints,
	})
	for _, warning := range profile.Warnings {
		fmt.Fprintln(os.Stderr, "apigent: warning:", warning)
	}
	for _, e := range profile.Errors {
		fmt.Fprintln(os.Stderr, "apigent: compile:", e)
	}
	if len(profile.Functions) == 0 {
		return fmt.Errorf("no callable functions compiled from %s", docPath)
	}

	providerRegistry := providers.NewRegistry()
	if err := providerRegistry.Register(openai.New(openai.Config{}), anthropic.New(anthropic.Config{}), ollama.New(ollama.Config{})); err != nil {
		return err
	}
	provider, err := providerRegistry.Lookup(cfg.Provider)
	if err != nil {
		return err
	}

	sink := events.SinkFunc(func(e events.Event) {
		if e.Type == events.FunctionStart && e.FunctionCall != nil {
			fmt.Fprintf(os.Stderr, "-> calling %s\n", e.FunctionCall.Name)
		}
	})

	runner := loop.New(loop.Config{
		Provider:      provider,
		Engine:        executor.New(executor.Config{}),
		Resolver:      registry,
		Events:        sink,
		MaxIterations: cfg.MaxIterations,
		Model:         cfg.Model,
		Credential:    cfg.Credential,
		MaxTokens:     cfg.MaxTokens,
		Temperature:   cfg.Temperature,
	})

	result, err := runner.Run(context.Background(), loop.Request{
		SystemPrompt: profile.SystemPrompt,
		UserMessage:  userMessage,
		Functions:    profile.Functions,
	})
	if err != nil {
		return err
	}

	fmt.Println(result.Reply)
	if len(result.HTTPCalls) > 0 {
		fmt.Fprintln(os.Stderr)
		for _, call := range result.HTTPCalls {
			fmt.Fprintf(os.Stderr, "%-6s %s -> %d\n", call.Method, call.URL, call.StatusCode)
		}
	}
	return nil
}
