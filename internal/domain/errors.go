package domain

import "errors"

var (
	// ErrValidation signals a malformed or incomplete requirement.
	ErrValidation = errors.New("validation failed")
	// ErrStoreFailure signals that the relational store could not serve a query.
	ErrStoreFailure = errors.New("store unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrLLMProviderError signals a language model transport or auth failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadySeeded signals that demo data is already present.
	ErrAlreadySeeded = errors.New("catalog already seeded")
)
