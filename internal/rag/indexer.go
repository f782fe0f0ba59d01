package rag

import (
	"context"
	"fmt"
)

// IndexOptions provides configuration for chunk indexing
type IndexOptions struct {
	// BatchSize determines how many chunks to embed per API call
	BatchSize int

	// ReplaceSource deletes previously ingested chunks of the same source
	// document before inserting
	ReplaceSource bool
}

// DefaultIndexOptions returns sensible defaults for indexing
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BatchSize:     20,
		ReplaceSource: true,
	}
}

// IndexChunks embeds pre-chunked corpus records and stores them in the
// vector store. Chunks must already carry their metadata; this function
// only embeds the searchable text and inserts in batches.
func IndexChunks(
	ctx context.Context,
	chunks []Chunk,
	embedder Embedder,
	store ChunkStore,
	opts IndexOptions,
) error {
	if len(chunks) == 0 {
		return nil
	}
	if embedder == nil {
		return fmt.Errorf("embedder cannot be nil")
	}
	if store == nil {
		return fmt.Errorf("chunk store cannot be nil")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultIndexOptions().BatchSize
	}

	// A re-ingested document fully replaces its previous version
	if opts.ReplaceSource {
		seen := make(map[string]bool)
		for _, c := range chunks {
			if seen[c.Source] {
				continue
			}
			seen[c.Source] = true
			if err := store.DeleteBySource(ctx, c.Source); err != nil {
				return fmt.Errorf("failed to delete existing chunks of %s: %w", c.Source, err)
			}
		}
	}

	for batchStart := 0; batchStart < len(chunks); batchStart += opts.BatchSize {
		batchEnd := batchStart + opts.BatchSize
		if batchEnd > len(chunks) {
			batchEnd = len(chunks)
		}
		batch := chunks[batchStart:batchEnd]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		records, err := embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch starting at %d: %w", batchStart, err)
		}
		if len(records) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d texts", len(records), len(batch))
		}

		embeddings := make([][]float32, len(batch))
		for i, rec := range records {
			embeddings[i] = rec.Embedding
		}

		if err := store.Insert(ctx, batch, embeddings); err != nil {
			return fmt.Errorf("failed to insert batch starting at %d: %w", batchStart, err)
		}
	}

	return nil
}
