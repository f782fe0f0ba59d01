// Package config loads engine configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "RESALEH"

// Specification holds all environment-driven settings. Values come from
// RESALEH_* variables, e.g. RESALEH_MILVUS_ADDRESS.
type Specification struct {
	MilvusAddress    string        `split_words:"true" default:"localhost:19530"`
	MilvusCollection string        `split_words:"true" default:"resaleh_chunks"`
	EmbedModel       string        `split_words:"true" default:"text-embedding-3-large"`
	EmbedDim         int           `split_words:"true" default:"3072"`
	ChatModel        string        `split_words:"true" default:"gpt-4o-mini"`
	MaxAnswerTokens  int           `split_words:"true" default:"1500"`
	SessionTurns     int           `split_words:"true" default:"5"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"30m"`
	SweepInterval    time.Duration `split_words:"true" default:"1h"`
	LogLevel         string        `split_words:"true" default:"info"`
}

// Load reads the specification from the environment.
func Load() (Specification, error) {
	var cfg Specification
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
