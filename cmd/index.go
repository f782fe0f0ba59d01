package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/resaleh-labs/resaleh/internal/rag"
)

var (
	batchSize int
	replace   bool
)

var indexCmd = &cobra.Command{
	Use:   "index [chunks.json]",
	Short: "Embed and index pre-chunked corpus records",
	Long: `Embed and index pre-chunked corpus records into the vector store.

The input file holds a JSON array of chunk records carrying text, ruling
number and section metadata. Chunks of an already-ingested source document
are replaced unless --replace=false is set.

Example:
  resaleh index resaleh_chunks.json`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().IntVar(&batchSize, "batch", 20, "Chunks per embedding API call")
	indexCmd.Flags().BoolVar(&replace, "replace", true, "Replace previously ingested chunks of the same source")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var chunks []rag.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%s holds no chunks", path)
	}

	ctx := context.Background()

	embedder, err := rag.NewOpenAIEmbedder(rag.EmbedderConfig{
		Model:     cfg.EmbedModel,
		Dimension: cfg.EmbedDim,
	})
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	store, err := rag.NewMilvusStore(ctx, rag.MilvusConfig{
		Address:        cfg.MilvusAddress,
		CollectionName: cfg.MilvusCollection,
		Dimension:      cfg.EmbedDim,
		M:              16,
		EfConstruction: 256,
	})
	if err != nil {
		return fmt.Errorf("failed to create chunk store: %w", err)
	}
	defer store.Close()

	logger.Info().Int("chunks", len(chunks)).Str("file", path).Msg("indexing")

	opts := rag.IndexOptions{
		BatchSize:     batchSize,
		ReplaceSource: replace,
	}
	if err := rag.IndexChunks(ctx, chunks, embedder, store, opts); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d chunks from %s\n", len(chunks), path)
	return nil
}
