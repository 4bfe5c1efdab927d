package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// PgVectorStore keeps chunks in a single pgvector-indexed table, one row per
// chunk, partitioned logically by collection name.
type PgVectorStore struct {
	conn     *pgx.Conn
	embedder *Embedder
}

func NewPgVectorStore(cfg *config.Config) (*PgVectorStore, error) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgVectorStore{conn: conn, embedder: NewEmbedder(cfg)}
	if err := s.ensureTable(); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) ensureTable() error {
	ctx := context.Background()

	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	chunksQuery := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS transcript_chunks (
			id SERIAL PRIMARY KEY,
			collection VARCHAR(255) NOT NULL,
			video_id VARCHAR(255) NOT NULL,
			video_title VARCHAR(500),
			chunk_index INT NOT NULL,
			text TEXT NOT NULL,
			start_ms BIGINT NOT NULL,
			end_ms BIGINT NOT NULL,
			timestamp_link VARCHAR(1024),
			embedding vector(%d),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(collection, video_id, chunk_index)
		);
	`, embeddingDim)
	if _, err := s.conn.Exec(ctx, chunksQuery); err != nil {
		return fmt.Errorf("failed to create transcript_chunks table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_chunks_collection ON transcript_chunks(collection);",
		"CREATE INDEX IF NOT EXISTS idx_chunks_video ON transcript_chunks(collection, video_id);",
	}
	for _, indexQuery := range indexes {
		if _, err := s.conn.Exec(ctx, indexQuery); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	vectorIndexQuery := `
		CREATE INDEX IF NOT EXISTS idx_chunks_embedding
		ON transcript_chunks
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100);
	`
	if _, err := s.conn.Exec(ctx, vectorIndexQuery); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}

func (s *PgVectorStore) Upsert(collection string, chunks []core.Chunk) (int, error) {
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

	count := 0
	for i, c := range chunks {
		_, err := s.conn.Exec(ctx, `
			INSERT INTO transcript_chunks
				(collection, video_id, video_title, chunk_index, text, start_ms, end_ms, timestamp_link, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (collection, video_id, chunk_index)
			DO UPDATE SET
				video_title = EXCLUDED.video_title,
				text = EXCLUDED.text,
				start_ms = EXCLUDED.start_ms,
				end_ms = EXCLUDED.end_ms,
				timestamp_link = EXCLUDED.timestamp_link,
				embedding = EXCLUDED.embedding
		`, collection, c.Metadata.VideoID, c.Metadata.VideoTitle, c.ChunkIndex,
			c.Text, c.StartMS, c.EndMS, c.Metadata.TimestampLink, pgvector.NewVector(vectors[i]))
		if err != nil {
			return count, fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
		count++
	}
	return count, nil
}

func (s *PgVectorStore) Search(collection string, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx := context.Background()

	queryEmbedding, err := s.embedder.Embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(queryEmbedding)

	rows, err := s.conn.Query(ctx, `
		SELECT video_id, video_title, chunk_index, text, start_ms, end_ms, timestamp_link,
		       1 - (embedding <=> $1) AS similarity
		FROM transcript_chunks
		WHERE collection = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, vec, collection, topK)
	if err != nil {
		return nil, fmt.Errorf("search collection %s: %w", collection, err)
	}
	defer rows.Close()

	var hits []core.Hit
	for rows.Next() {
		var h core.Hit
		if err := rows.Scan(&h.Metadata.VideoID, &h.Metadata.VideoTitle, &h.ChunkIndex,
			&h.Text, &h.StartMS, &h.EndMS, &h.Metadata.TimestampLink, &h.Score); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *PgVectorStore) Has(collection string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(context.Background(),
		"SELECT EXISTS (SELECT 1 FROM transcript_chunks WHERE collection = $1)", collection).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", collection, err)
	}
	return exists, nil
}

func (s *PgVectorStore) Close() {
	_ = s.conn.Close(context.Background())
}
