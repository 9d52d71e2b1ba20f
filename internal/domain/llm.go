package domain

import "context"

// Prompt is a two-part chat request: a fixed system policy and a filled user message.
type Prompt struct {
	System string
	User   string
}

// Completion is the raw text reply of a generative model with its token usage.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generator sends one prompt to a generative model and returns its reply.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (Completion, error)
}
