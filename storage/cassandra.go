package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// CassandraVectorStore keeps chunk embeddings in a Cassandra table keyed by
// collection. Cassandra has no native vector index, so Search pulls the
// collection partition and ranks it client-side by cosine similarity;
// collections here are a single video course, small enough for that to be
// acceptable.
type CassandraVectorStore struct {
	session  *gocql.Session
	embedder *Embedder
}

func NewCassandraVectorStore(cfg *config.Config) (*CassandraVectorStore, error) {
	cluster := gocql.NewCluster(strings.Split(cfg.CassandraHosts, ",")...)
	cluster.Keyspace = cfg.CassandraKeyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	s := &CassandraVectorStore{session: session, embedder: NewEmbedder(cfg)}
	if err := s.ensureTable(); err != nil {
		session.Close()
		return nil, err
	}
	return s, nil
}

func (s *CassandraVectorStore) ensureTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS chunk_embeddings (
			collection text,
			video_id text,
			chunk_index int,
			video_title text,
			chunk_text text,
			start_ms bigint,
			end_ms bigint,
			timestamp_link text,
			embedding list<float>,
			created_at timestamp,
			PRIMARY KEY ((collection), video_id, chunk_index)
		)
	`
	if err := s.session.Query(query).Exec(); err != nil {
		return fmt.Errorf("failed to create chunk_embeddings table: %w", err)
	}
	return nil
}

func (s *CassandraVectorStore) Upsert(collection string, chunks []core.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	ctx := context.Background()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = strings.ToLower(c.Text)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO chunk_embeddings (
			collection, video_id, chunk_index, video_title, chunk_text,
			start_ms, end_ms, timestamp_link, embedding, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	count := 0
	for i, c := range chunks {
		link := ""
		if c.Metadata.TimestampLink != nil {
			link = *c.Metadata.TimestampLink
		}
		err := s.session.Query(query,
			collection, c.Metadata.VideoID, c.ChunkIndex, c.Metadata.VideoTitle, c.Text,
			int64(c.StartMS), int64(c.EndMS), link, vectors[i], time.Now(),
		).Exec()
		if err != nil {
			return count, fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
		count++
	}
	return count, nil
}

func (s *CassandraVectorStore) Search(collection string, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx := context.Background()

	queryVec, err := s.embedder.Embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, err
	}

	iter := s.session.Query(`
		SELECT video_id, chunk_index, video_title, chunk_text, start_ms, end_ms, timestamp_link, embedding
		FROM chunk_embeddings WHERE collection = ?
	`, collection).Iter()

	var hits []core.Hit
	var (
		videoID, videoTitle, chunkText, link string
		chunkIndex                           int
		startMS, endMS                       int64
		embedding                            []float32
	)
	for iter.Scan(&videoID, &chunkIndex, &videoTitle, &chunkText, &startMS, &endMS, &link, &embedding) {
		h := core.Hit{
			Score:      cosineFloat32(queryVec, embedding),
			ChunkIndex: chunkIndex,
			Text:       chunkText,
			StartMS:    int(startMS),
			EndMS:      int(endMS),
			Metadata: core.ChunkMetadata{
				VideoID:    videoID,
				VideoTitle: videoTitle,
			},
		}
		if link != "" {
			l := link
			h.Metadata.TimestampLink = &l
		}
		hits = append(hits, h)
		embedding = nil
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *CassandraVectorStore) Has(collection string) (bool, error) {
	var found string
	err := s.session.Query(
		"SELECT collection FROM chunk_embeddings WHERE collection = ? LIMIT 1", collection).Scan(&found)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", collection, err)
	}
	return true, nil
}

func (s *CassandraVectorStore) Close() {
	s.session.Close()
}

func cosineFloat32(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
