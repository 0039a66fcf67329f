package postprocessors

import (
	"github.com/custodia-labs/sercha-indexer/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-indexer/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-indexer/internal/postprocessors/identity"
)

// DefaultOrder is the processor order used by the indexer.
var DefaultOrder = []string{"chunker", "identity"}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("identity", buildIdentity)
}

// NewDefaultPipeline builds the chunker + identity pipeline.
func NewDefaultPipeline(chunkSize, overlap int) *Pipeline {
	r := NewRegistry()
	RegisterDefaults(r)
	// Built-in builders never fail.
	p, _ := r.BuildPipeline(DefaultOrder, map[string]map[string]any{
		"chunker": {"chunk_size": chunkSize, "overlap": overlap},
	})
	return p
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Runes per chunk (default: 1000)
//   - overlap (int): Overlapping runes between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// buildIdentity creates the identity processor.
// Supported config keys:
//   - excerpt_length (int): Runes kept in each chunk excerpt (default: 200)
func buildIdentity(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []identity.Option
	if n, ok := getIntFromConfig(cfg, "excerpt_length"); ok {
		opts = append(opts, identity.WithExcerptLength(n))
	}
	return identity.New(opts...), nil
}

// getIntFromConfig extracts an int from a generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
