package storage

import (
	"math"
	"testing"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

func testChunks() []core.Chunk {
	return []core.Chunk{
		{ChunkIndex: 0, Text: "Docker containers package applications with their dependencies.", StartMS: 0, EndMS: 5000,
			Metadata: core.ChunkMetadata{VideoID: "vid1", VideoTitle: "Docker Intro"}},
		{ChunkIndex: 1, Text: "Kubernetes orchestrates containers across a cluster of machines.", StartMS: 5000, EndMS: 11000,
			Metadata: core.ChunkMetadata{VideoID: "vid1", VideoTitle: "Docker Intro"}},
		{ChunkIndex: 2, Text: "A sourdough starter needs flour and water every day.", StartMS: 0, EndMS: 7000,
			Metadata: core.ChunkMetadata{VideoID: "vid2", VideoTitle: "Baking Basics"}},
	}
}

func TestMemoryStoreUpsertAndSearch(t *testing.T) {
	store := NewMemoryVectorStore()
	n, err := store.Upsert("course_a", testChunks())
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("Upsert stored %d chunks, want 3", n)
	}

	hits, err := store.Search("course_a", "how does kubernetes manage containers", 2)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ChunkIndex != 1 {
		t.Errorf("top hit chunk index = %d, want the kubernetes chunk (1)", hits[0].ChunkIndex)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not sorted by score: %f < %f", hits[0].Score, hits[1].Score)
	}
	if hits[0].Metadata.VideoTitle != "Docker Intro" {
		t.Errorf("top hit metadata = %+v", hits[0].Metadata)
	}
}

func TestMemoryStoreCollectionsAreIsolated(t *testing.T) {
	store := NewMemoryVectorStore()
	if _, err := store.Upsert("course_a", testChunks()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	hits, err := store.Search("course_b", "containers", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits in empty collection, got %d", len(hits))
	}
}

func TestMemoryStoreTopKClamp(t *testing.T) {
	store := NewMemoryVectorStore()
	if _, err := store.Upsert("course_a", testChunks()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	hits, err := store.Search("course_a", "containers", 100)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("topK beyond collection size should clamp to %d docs, got %d hits", 3, len(hits))
	}

	hits, err = store.Search("course_a", "containers", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("topK 0 should default-clamp, got %d hits", len(hits))
	}
}

func TestMemoryStoreHas(t *testing.T) {
	store := NewMemoryVectorStore()

	has, err := store.Has("course_a")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if has {
		t.Error("empty store should not have the collection")
	}

	if _, err := store.Upsert("course_a", testChunks()); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	has, err = store.Has("course_a")
	if err != nil {
		t.Fatalf("Has failed: %v", err)
	}
	if !has {
		t.Error("store should have the collection after upsert")
	}
}

func TestCosine(t *testing.T) {
	a := map[string]float64{"x": 1, "y": 2}
	if got := cosine(a, a); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("cosine(a, a) = %f, want 1", got)
	}
	b := map[string]float64{"z": 3}
	if got := cosine(a, b); got != 0 {
		t.Errorf("cosine of disjoint vectors = %f, want 0", got)
	}
	if got := cosine(a, map[string]float64{}); got != 0 {
		t.Errorf("cosine against empty vector = %f, want 0", got)
	}
}
