package storage

import (
	"fmt"
	"log"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// VectorStore persists chunk batches under named collections and answers
// similarity queries against one collection. Implementations own embedding
// generation so callers only ever deal in chunks and hits.
type VectorStore interface {
	Upsert(collection string, chunks []core.Chunk) (int, error)
	Search(collection string, query string, topK int) ([]core.Hit, error)
	Has(collection string) (bool, error)
	Close()
}

// NewVectorStore picks a backend from the STORE environment variable:
// pgvector, milvus, cassandra, or memory (the default). Backends that need
// API credentials fall back to the memory store when the config is unusable,
// so the service always comes up.
func NewVectorStore(cfg *config.Config) VectorStore {
	kind := strings.ToLower(strings.TrimSpace(os.Getenv("STORE")))

	if kind == "memory" || kind == "" {
		return NewMemoryVectorStore()
	}

	if !cfg.HasValidAPI() {
		config.PrintConfigInstructions()
		log.Printf("Warning: API configuration required for %s store, falling back to memory store", kind)
		return NewMemoryVectorStore()
	}

	var (
		s   VectorStore
		err error
	)
	switch kind {
	case "pgvector":
		s, err = NewPgVectorStore(cfg)
	case "milvus":
		s, err = NewMilvusVectorStore(cfg)
	case "cassandra":
		s, err = NewCassandraVectorStore(cfg)
	default:
		err = fmt.Errorf("unknown STORE backend %q", kind)
	}
	if err != nil {
		log.Printf("Warning: failed to initialize %s store (%v), falling back to memory store", kind, err)
		return NewMemoryVectorStore()
	}
	log.Printf("Vector store initialized: %s", kind)
	return s
}

// ---------------- Memory implementation (kept for fallback) ----------------

// MemoryVectorStore embeds with term frequencies instead of an embedding API,
// trading quality for zero external dependencies. Used in tests and when no
// real backend is configured.
type MemoryVectorStore struct {
	mu   sync.RWMutex
	docs map[string][]memoryDoc // collection -> docs
}

type memoryDoc struct {
	chunk core.Chunk
	embed map[string]float64 // term -> weight
}

func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{docs: map[string][]memoryDoc{}}
}

func (s *MemoryVectorStore) Upsert(collection string, chunks []core.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]memoryDoc, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, memoryDoc{chunk: c, embed: embedText(strings.ToLower(c.Text))})
	}
	s.docs[collection] = append(s.docs[collection], docs...)
	return len(docs), nil
}

func (s *MemoryVectorStore) Search(collection string, query string, topK int) ([]core.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := s.docs[collection]
	qv := embedText(strings.ToLower(query))

	type scored struct {
		i     int
		score float64
	}
	scores := make([]scored, 0, len(docs))
	for i, d := range docs {
		scores = append(scores, scored{i, cosine(qv, d.embed)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if topK <= 0 || topK > len(scores) {
		topK = core.Min(len(scores), 5)
	}

	hits := make([]core.Hit, 0, topK)
	for _, sc := range scores[:topK] {
		c := docs[sc.i].chunk
		hits = append(hits, core.Hit{
			Score:      sc.score,
			ChunkIndex: c.ChunkIndex,
			Text:       c.Text,
			StartMS:    c.StartMS,
			EndMS:      c.EndMS,
			Metadata:   c.Metadata,
		})
	}
	return hits, nil
}

func (s *MemoryVectorStore) Has(collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection]) > 0, nil
}

func (s *MemoryVectorStore) Close() {}

func embedText(text string) map[string]float64 {
	vec := map[string]float64{}
	for _, tok := range strings.Fields(text) {
		vec[tok]++
	}
	return vec
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for k, va := range a {
		na += va * va
		if vb, ok := b[k]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
