package rag

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Common errors for Milvus operations
var (
	ErrInvalidDimension = errors.New("invalid vector dimension")
	ErrEmptyChunks      = errors.New("no chunks provided for insertion")
	ErrConnectionFailed = errors.New("failed to connect to Milvus")
	ErrInsertFailed     = errors.New("failed to insert chunks")
	ErrSearchFailed     = errors.New("failed to search vectors")
	ErrQueryFailed      = errors.New("failed to query chunks")
)

// MilvusConfig holds configuration for Milvus connection and collection
type MilvusConfig struct {
	Address        string // Milvus server address (e.g., "localhost:19530")
	CollectionName string // Name of the collection
	Dimension      int    // Vector dimension (e.g., 3072 for text-embedding-3-large)

	// HNSW index parameters
	M              int // HNSW M parameter (default: 16)
	EfConstruction int // HNSW efConstruction (default: 256)
}

// DefaultMilvusConfig returns the default collection configuration
func DefaultMilvusConfig() MilvusConfig {
	return MilvusConfig{
		Address:        "localhost:19530",
		CollectionName: "resaleh_chunks",
		Dimension:      3072,
		M:              16,
		EfConstruction: 256,
	}
}

// MilvusStore implements the ChunkStore interface using Milvus
type MilvusStore struct {
	client client.Client
	config MilvusConfig
}

// NewMilvusStore connects to Milvus and ensures the chunk collection exists
// with the proper schema
func NewMilvusStore(ctx context.Context, config MilvusConfig) (*MilvusStore, error) {
	if config.Dimension <= 0 {
		return nil, ErrInvalidDimension
	}

	c, err := client.NewGrpcClient(ctx, config.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	store := &MilvusStore{
		client: c,
		config: config,
	}

	if err := store.ensureCollection(ctx); err != nil {
		c.Close()
		return nil, err
	}

	return store, nil
}

// ensureCollection creates the collection with schema if it doesn't exist
func (m *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.config.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if has {
		return nil
	}

	varchar := func(name string, maxLen int) *entity.Field {
		return &entity.Field{
			Name:     name,
			DataType: entity.FieldTypeVarChar,
			TypeParams: map[string]string{
				"max_length": strconv.Itoa(maxLen),
			},
		}
	}

	schema := &entity.Schema{
		CollectionName: m.config.CollectionName,
		AutoID:         true,
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeInt64,
				PrimaryKey: true,
				AutoID:     true,
			},
			varchar("source", 512),
			{
				Name:     "chunk_index",
				DataType: entity.FieldTypeInt64,
			},
			varchar("text", 65535),
			varchar("raw_text", 65535),
			{
				Name:     "problem_number",
				DataType: entity.FieldTypeInt64,
			},
			varchar("section", 512),
			varchar("subsection", 512),
			varchar("sub2", 512),
			varchar("section_path", 2048),
			varchar("keywords", 2048),
			varchar("chunk_type", 32),
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(m.config.Dimension),
				},
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexHNSW(entity.COSINE, m.config.M, m.config.EfConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index config: %w", err)
	}

	if err := m.client.CreateIndex(ctx, m.config.CollectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	return nil
}

// chunkOutputFields lists the metadata fields returned by search and query.
var chunkOutputFields = []string{
	"source", "chunk_index", "text", "raw_text", "problem_number",
	"section", "subsection", "sub2", "section_path", "keywords", "chunk_type",
}

// Insert adds chunks with their embedding vectors to Milvus
func (m *MilvusStore) Insert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return ErrEmptyChunks
	}
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", ErrInsertFailed, len(chunks), len(embeddings))
	}

	sources := make([]string, len(chunks))
	chunkIndexes := make([]int64, len(chunks))
	texts := make([]string, len(chunks))
	rawTexts := make([]string, len(chunks))
	problemNumbers := make([]int64, len(chunks))
	sections := make([]string, len(chunks))
	subsections := make([]string, len(chunks))
	sub2s := make([]string, len(chunks))
	sectionPaths := make([]string, len(chunks))
	keywords := make([]string, len(chunks))
	chunkTypes := make([]string, len(chunks))

	for i, c := range chunks {
		sources[i] = c.Source
		chunkIndexes[i] = c.ChunkIndex
		texts[i] = c.Text
		rawTexts[i] = c.RawText
		problemNumbers[i] = c.ProblemNumber
		sections[i] = c.Section
		subsections[i] = c.Subsection
		sub2s[i] = c.Sub2
		sectionPaths[i] = c.SectionPath
		keywords[i] = c.Keywords
		chunkTypes[i] = c.ChunkType
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnInt64("chunk_index", chunkIndexes),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("raw_text", rawTexts),
		entity.NewColumnInt64("problem_number", problemNumbers),
		entity.NewColumnVarChar("section", sections),
		entity.NewColumnVarChar("subsection", subsections),
		entity.NewColumnVarChar("sub2", sub2s),
		entity.NewColumnVarChar("section_path", sectionPaths),
		entity.NewColumnVarChar("keywords", keywords),
		entity.NewColumnVarChar("chunk_type", chunkTypes),
		entity.NewColumnFloatVector("embedding", m.config.Dimension, embeddings),
	}

	if _, err := m.client.Insert(ctx, m.config.CollectionName, "", columns...); err != nil {
		return fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}

	if err := m.client.Flush(ctx, m.config.CollectionName, false); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	return nil
}

// filterExpr converts a QueryFilter to a Milvus boolean expression.
func filterExpr(filter *QueryFilter) string {
	if filter == nil {
		return ""
	}
	var parts []string
	if filter.Section != "" {
		escaped := strings.ReplaceAll(filter.Section, `"`, `\"`)
		parts = append(parts, fmt.Sprintf(`section == "%s"`, escaped))
	}
	if filter.ProblemNumber != nil {
		parts = append(parts, fmt.Sprintf("problem_number == %d", *filter.ProblemNumber))
	}
	return strings.Join(parts, " and ")
}

// SimilarityQuery performs top-K similarity search with optional filtering.
// Returned distances are cosine distances (1 - cosine similarity).
func (m *MilvusStore) SimilarityQuery(ctx context.Context, vector []float32, topK int, filter *QueryFilter) ([]ScoredChunk, error) {
	if len(vector) != m.config.Dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrInvalidDimension, m.config.Dimension, len(vector))
	}

	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, fmt.Errorf("failed to create search params: %w", err)
	}

	vectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := m.client.Search(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		filterExpr(filter),
		chunkOutputFields,
		vectors,
		"embedding",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}

	if len(results) == 0 {
		return []ScoredChunk{}, nil
	}

	scored := make([]ScoredChunk, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		// Milvus reports cosine similarity for the COSINE metric; the
		// engine's contract is a distance, converted back via 1 - distance.
		scored = append(scored, ScoredChunk{
			Chunk:    chunkFromColumns(results[0].Fields, i),
			Distance: 1 - results[0].Scores[i],
		})
	}

	return scored, nil
}

// ExactQuery returns all chunks matching the equality filter
func (m *MilvusStore) ExactQuery(ctx context.Context, filter *QueryFilter) ([]Chunk, error) {
	expr := filterExpr(filter)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty filter", ErrQueryFailed)
	}

	results, err := m.client.Query(
		ctx,
		m.config.CollectionName,
		nil, // partition names
		expr,
		chunkOutputFields,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	count := 0
	for _, col := range results {
		count = col.Len()
		break
	}

	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		chunks = append(chunks, chunkFromColumns(results, i))
	}

	return chunks, nil
}

// chunkFromColumns extracts the i-th chunk from a set of result columns.
func chunkFromColumns(cols []entity.Column, i int) Chunk {
	var c Chunk
	for _, col := range cols {
		switch col.Name() {
		case "source":
			c.Source = col.(*entity.ColumnVarChar).Data()[i]
		case "chunk_index":
			c.ChunkIndex = col.(*entity.ColumnInt64).Data()[i]
		case "text":
			c.Text = col.(*entity.ColumnVarChar).Data()[i]
		case "raw_text":
			c.RawText = col.(*entity.ColumnVarChar).Data()[i]
		case "problem_number":
			c.ProblemNumber = col.(*entity.ColumnInt64).Data()[i]
		case "section":
			c.Section = col.(*entity.ColumnVarChar).Data()[i]
		case "subsection":
			c.Subsection = col.(*entity.ColumnVarChar).Data()[i]
		case "sub2":
			c.Sub2 = col.(*entity.ColumnVarChar).Data()[i]
		case "section_path":
			c.SectionPath = col.(*entity.ColumnVarChar).Data()[i]
		case "keywords":
			c.Keywords = col.(*entity.ColumnVarChar).Data()[i]
		case "chunk_type":
			c.ChunkType = col.(*entity.ColumnVarChar).Data()[i]
		}
	}
	return c
}

// DeleteBySource removes all chunks ingested from the given source document
func (m *MilvusStore) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return nil
	}

	escaped := strings.ReplaceAll(source, `"`, `\"`)
	expr := fmt.Sprintf(`source == "%s"`, escaped)

	if err := m.client.Delete(ctx, m.config.CollectionName, "", expr); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	return nil
}

// Count returns the number of chunks in the collection
func (m *MilvusStore) Count(ctx context.Context) (int64, error) {
	stats, err := m.client.GetCollectionStatistics(ctx, m.config.CollectionName)
	if err != nil {
		return 0, fmt.Errorf("failed to get stats: %w", err)
	}

	n, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse row count %q: %w", stats["row_count"], err)
	}

	return n, nil
}

// Close releases resources and closes the Milvus connection
func (m *MilvusStore) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}
