package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// MilvusVectorStore stores every chunk in one Milvus collection with a
// scalar "collection" field for partition-style filtering.
type MilvusVectorStore struct {
	mc       client.Client
	coll     string
	embedder *Embedder
}

func NewMilvusVectorStore(cfg *config.Config) (*MilvusVectorStore, error) {
	mc, err := client.NewClient(context.Background(), client.Config{Address: cfg.MilvusAddr})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	s := &MilvusVectorStore{mc: mc, coll: "transcript_chunks", embedder: NewEmbedder(cfg)}
	if err := s.ensureSchemaAndIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusVectorStore) ensureSchemaAndIndex() error {
	ctx := context.Background()
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema()
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("collection").WithDataType(entity.FieldTypeVarChar).WithMaxLength(255))
		schema.WithField(entity.NewField().WithName("video_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(255))
		schema.WithField(entity.NewField().WithName("video_title").WithDataType(entity.FieldTypeVarChar).WithMaxLength(512))
		schema.WithField(entity.NewField().WithName("chunk_index").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192))
		schema.WithField(entity.NewField().WithName("start_ms").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("end_ms").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("timestamp_link").WithDataType(entity.FieldTypeVarChar).WithMaxLength(1024))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(embeddingDim)))

		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func (s *MilvusVectorStore) Upsert(collection string, chunks []core.Chunk) (int, error) {
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

	colls := make([]string, 0, len(chunks))
	videoIDs := make([]string, 0, len(chunks))
	titles := make([]string, 0, len(chunks))
	indices := make([]int64, 0, len(chunks))
	chunkTexts := make([]string, 0, len(chunks))
	starts := make([]int64, 0, len(chunks))
	ends := make([]int64, 0, len(chunks))
	links := make([]string, 0, len(chunks))

	for _, c := range chunks {
		colls = append(colls, collection)
		videoIDs = append(videoIDs, c.Metadata.VideoID)
		titles = append(titles, c.Metadata.VideoTitle)
		indices = append(indices, int64(c.ChunkIndex))
		chunkTexts = append(chunkTexts, c.Text)
		starts = append(starts, int64(c.StartMS))
		ends = append(ends, int64(c.EndMS))
		link := ""
		if c.Metadata.TimestampLink != nil {
			link = *c.Metadata.TimestampLink
		}
		links = append(links, link)
	}

	_, err = s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("collection", colls),
		entity.NewColumnVarChar("video_id", videoIDs),
		entity.NewColumnVarChar("video_title", titles),
		entity.NewColumnInt64("chunk_index", indices),
		entity.NewColumnVarChar("text", chunkTexts),
		entity.NewColumnInt64("start_ms", starts),
		entity.NewColumnInt64("end_ms", ends),
		entity.NewColumnVarChar("timestamp_link", links),
		entity.NewColumnFloatVector("vector", embeddingDim, vectors),
	)
	if err != nil {
		return 0, fmt.Errorf("insert chunks: %w", err)
	}
	return len(chunks), nil
}

func (s *MilvusVectorStore) Search(collection string, query string, topK int) ([]core.Hit, error) {
	if topK <= 0 {
		topK = 5
	}
	ctx := context.Background()

	v, err := s.embedder.Embed(ctx, strings.ToLower(query))
	if err != nil {
		return nil, err
	}

	sp, _ := entity.NewIndexHNSWSearchParam(74)
	filter := fmt.Sprintf("collection == \"%s\"", strings.ReplaceAll(collection, "\"", "\\\""))
	outputFields := []string{"video_id", "video_title", "chunk_index", "text", "start_ms", "end_ms", "timestamp_link"}
	res, err := s.mc.Search(ctx, s.coll, []string{}, filter, outputFields,
		[]entity.Vector{entity.FloatVector(v)}, "vector", entity.COSINE, topK, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search: %w", err)
	}

	var hits []core.Hit
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			h := core.Hit{Score: float64(r.Scores[i])}
			if c, ok := cols["video_id"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					h.Metadata.VideoID = data[i]
				}
			}
			if c, ok := cols["video_title"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					h.Metadata.VideoTitle = data[i]
				}
			}
			if c, ok := cols["chunk_index"].(*entity.ColumnInt64); ok {
				if data := c.Data(); i < len(data) {
					h.ChunkIndex = int(data[i])
				}
			}
			if c, ok := cols["text"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					h.Text = data[i]
				}
			}
			if c, ok := cols["start_ms"].(*entity.ColumnInt64); ok {
				if data := c.Data(); i < len(data) {
					h.StartMS = int(data[i])
				}
			}
			if c, ok := cols["end_ms"].(*entity.ColumnInt64); ok {
				if data := c.Data(); i < len(data) {
					h.EndMS = int(data[i])
				}
			}
			if c, ok := cols["timestamp_link"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) && data[i] != "" {
					link := data[i]
					h.Metadata.TimestampLink = &link
				}
			}
			hits = append(hits, h)
		}
	}
	return hits, nil
}

func (s *MilvusVectorStore) Has(collection string) (bool, error) {
	ctx := context.Background()
	filter := fmt.Sprintf("collection == \"%s\"", strings.ReplaceAll(collection, "\"", "\\\""))
	res, err := s.mc.Query(ctx, s.coll, nil, filter, []string{"chunk_index"}, client.WithLimit(1))
	if err != nil {
		return false, fmt.Errorf("check collection %s: %w", collection, err)
	}
	for _, col := range res {
		if col.Len() > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *MilvusVectorStore) Close() {
	_ = s.mc.Close()
}
