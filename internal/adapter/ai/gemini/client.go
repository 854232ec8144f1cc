// Package gemini implements the generative re-ranking oracle on top of the
// Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// Oracle wraps the Google GenAI client. It implements domain.Oracle: a single
// bounded call per prompt, no retries. Callers fall back on any error.
type Oracle struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
}

// New creates an Oracle configured for the Gemini API backend.
func New(ctx context.Context, apiKey, model string, timeout time.Duration) (*Oracle, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		return nil, errors.New("gemini model is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Oracle{client: client, modelName: model, timeout: timeout}, nil
}

// Generate sends the prompt and returns the concatenated textual response.
// The call is bounded by the configured timeout.
func (o *Oracle) Generate(ctx context.Context, prompt string) (string, error) {
	if o == nil || o.client == nil {
		return "", fmt.Errorf("gemini oracle not initialized: %w", domain.ErrOracleUnavailable)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt: %w", domain.ErrInvalidArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	observability.AIRequestsTotal.WithLabelValues("gemini", "generate").Inc()
	start := time.Now()
	resp, err := o.client.Models.GenerateContent(ctx, o.modelName, genai.Text(prompt), nil)
	observability.AIRequestDuration.WithLabelValues("gemini", "generate").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("generate content: %w: %w", err, domain.ErrOracleUnavailable)
	}

	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text: %w", domain.ErrOracleUnavailable)
	}
	return b.String(), nil
}
