package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resaleh-labs/resaleh/internal/rag"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show collection statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

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

	count, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Collection: %s\n", cfg.MilvusCollection)
	fmt.Printf("Chunks:     %d\n", count)
	return nil
}
