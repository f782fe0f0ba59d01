package rag

import (
	"errors"
	"testing"
)

func TestNewOpenAIEmbedderValidation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-large", Dimension: 3072}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("missing key must be rejected, got %v", err)
	}

	if _, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "k", Dimension: 3072}); err == nil {
		t.Error("missing model must be rejected")
	}

	if _, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "k", Model: "text-embedding-3-large"}); !errors.Is(err, ErrInvalidDimension) {
		t.Errorf("non-positive dimension must be rejected, got %v", err)
	}

	if _, err := NewOpenAIEmbedder(EmbedderConfig{APIKey: "k", Model: "text-embedding-3-large", Dimension: 3072}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestNewOpenAIEmbedderKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	if _, err := NewOpenAIEmbedder(EmbedderConfig{Model: "text-embedding-3-large", Dimension: 3072}); err != nil {
		t.Errorf("environment key must satisfy the config fallback: %v", err)
	}
}
