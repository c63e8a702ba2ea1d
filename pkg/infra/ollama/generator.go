package ollama

import (
	"context"
	"time"

	"github.com/jguan/nas-assistant/pkg/infra/logger"
)

// Generator binds a Client to one model and its sampling options so that
// callers only pass the prompt.
type Generator struct {
	client  *Client
	model   string
	options Options
}

func NewGenerator(client *Client, model string, opts Options) *Generator {
	return &Generator{client: client, model: model, options: opts}
}

// Generate returns the completion text, or ErrEmptyResponse.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	opts := g.options
	resp, err := g.client.Generate(ctx, &GenerateRequest{
		Model:   g.model,
		Prompt:  prompt,
		Options: &opts,
	})
	if err != nil {
		return "", err
	}

	logger.WithContext(ctx).Debug("ollama completion",
		"model", resp.Model,
		"prompt_eval_count", resp.PromptEvalCount,
		"eval_count", resp.EvalCount,
		"total_duration", time.Duration(resp.TotalDuration),
	)

	if resp.Response == "" {
		return "", ErrEmptyResponse
	}
	return resp.Response, nil
}

// Model is the model name sent with every request.
func (g *Generator) Model() string { return g.model }
