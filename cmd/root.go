package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/resaleh-labs/resaleh/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "resaleh",
	Short: "Resaleh - jurisprudence corpus question answering",
	Long: `Resaleh answers natural-language questions against a chunked
jurisprudence corpus.

It retrieves the most relevant rulings through direct number lookup or
multi-query semantic search over a vector store, then streams an answer
grounded in the retrieved passages.`,
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the environment specification and builds the logger.
func loadConfig() (config.Specification, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	return cfg, logger, nil
}
