package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/claude"
	"github.com/urfave/cli/v3"
)

// Claude holds configuration for the Claude LLM client
type Claude struct {
	apiKey string
	model  string
}

// Flags returns CLI flags for Claude configuration
func (c *Claude) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "claude-api-key",
			Usage:       "Anthropic API key for knowledge base analysis",
			Sources:     cli.EnvVars("LONGVIEW_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"),
			Destination: &c.apiKey,
		},
		&cli.StringFlag{
			Name:        "claude-model",
			Usage:       "Claude model used for analysis",
			Value:       "claude-sonnet-4-20250514",
			Sources:     cli.EnvVars("LONGVIEW_CLAUDE_MODEL"),
			Destination: &c.model,
		},
	}
}

// LogAttrs returns log attributes for the Claude configuration. The API
// key itself is never logged.
func (c *Claude) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("api_key_set", c.apiKey != ""),
		slog.String("model", c.model),
	}
}

// Configure creates a new Claude LLM client from the configured flags.
// Returns nil if no API key is configured (analysis will be disabled).
func (c *Claude) Configure(ctx context.Context) (gollem.LLMClient, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	client, err := claude.New(ctx, c.apiKey, claude.WithModel(c.model))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Claude client")
	}

	return client, nil
}
