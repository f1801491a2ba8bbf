// Package providers implements completion endpoint clients for review
// prompts.
package providers

import (
	"context"
	"fmt"
)

// Completer issues a single prompt to a completion endpoint and returns the
// raw reply text.
type Completer interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
	Name() string
}

// New creates a provider by name.
func New(provider, model string) (Completer, error) {
	switch provider {
	case "anthropic":
		return NewAnthropic(model)
	case "openai":
		return NewOpenAI(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
