package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/walletwise/internal/agent"
	"github.com/lox/walletwise/internal/db"
)

// ErrMissingAPIKey is returned when a hosted service is configured without a key
var ErrMissingAPIKey = errors.New("api key is required")

// SetupLogger creates the logger every component receives
func SetupLogger(w io.Writer, level string) (*log.Logger, error) {
	logger := log.New(w)
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// SetupStore opens the transaction database in the configured timezone
func SetupStore(config CommonConfig, logger *log.Logger) (*db.DB, *time.Location, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load timezone: %w", err)
	}
	database, err := db.New(config.DataDir, logger, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return database, loc, nil
}

// SetupAgent creates the chat model client
func SetupAgent(config LLMConfig, logger *log.Logger) (*agent.Agent, error) {
	if config.GroqKey == "" {
		return nil, fmt.Errorf("groq: %w", ErrMissingAPIKey)
	}
	baseURL := config.LLMBaseURL
	if baseURL == "" {
		baseURL = agent.GroqBaseURL
	}
	logger.Debug("Using chat model", "model", config.LLMModel, "base_url", baseURL)
	return agent.NewCompatibleAgent(logger, baseURL, config.GroqKey, config.LLMModel, config.MaxAttempts), nil
}
