package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// config controls the apigent CLI runtime.
type config struct {
	Provider      string
	Model         string
	Credential    string
	BaseURL       string
	MaxIterations int
	MaxTokens     int
	Temperature   *float64
}

// loadConfig reads configuration from environment variables.
func loadConfig() (config, error) {
	maxIterations, err := intEnvStrict("APIGENT_MAX_ITERATIONS", 10)
	if err != nil {
		return config{}, err
	}
	maxTokens, err := intEnvStrict("APIGENT_MAX_TOKENS", 0)
	if err != nil {
		return config{}, err
	}

	cfg := config{
		Provider:      trimmedEnv("APIGENT_PROVIDER"),
		Model:         trimmedEnv("APIGENT_MODEL"),
		BaseURL:       trimmedEnv("APIGENT_BASE_URL"),
		MaxIterations: maxIterations,
		MaxTokens:     maxTokens,
	}
	if cfg.Provider == "" {
		cfg.Provider = "openai"
	}
	if cfg.Model == "" {
		return config{}, errors.New("config: APIGENT_MODEL is required")
	}

	switch cfg.Provider {
	case "openai":
		cfg.Credential = trimmedEnv("OPENAI_API_KEY")
	case "anthropic":
		cfg.Credential = trimmedEnv("ANTHROPIC_API_KEY")
	}

	if temp := trimmedEnv("APIGENT_TEMPERATURE"); temp != "" {
		parsed, err := strconv.ParseFloat(temp, 64)
		if err != nil {
			return config{}, fmt.Errorf("config: invalid APIGENT_TEMPERATURE: %w", err)
		}
		cfg.Temperature = &parsed
	}
	return cfg, nil
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intEnvStrict(key string, fallback int) (int, error) {
	raw := trimmedEnv(key)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s: %w", key, err)
	}
	return parsed, nil
}
