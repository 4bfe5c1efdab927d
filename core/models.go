package core

// TranscriptSegment is one time-bounded fragment of recognized or subtitled
// speech. Segments arrive ordered by start time and are never merged or
// reordered; the chunker consumes them as-is.
type TranscriptSegment struct {
	Text    string `json:"text"`
	StartMS int    `json:"start_ms"`
	EndMS   int    `json:"end_ms"`
}

// ChunkMetadata travels with every chunk into the vector store and back out
// with search hits. TimestampLink is only set for 11-character YouTube IDs.
type ChunkMetadata struct {
	VideoID       string  `json:"video_id"`
	VideoTitle    string  `json:"video_title"`
	TimestampLink *string `json:"timestamp_link"`
}

// Chunk is a retrieval-sized group of consecutive sentences with the best
// recoverable start/end offsets in the source video.
type Chunk struct {
	ChunkIndex int           `json:"chunk_index"`
	Text       string        `json:"text"`
	StartMS    int           `json:"start_ms"`
	EndMS      int           `json:"end_ms"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// Hit is a scored search result returned by a vector store backend.
type Hit struct {
	Score      float64       `json:"score"`
	ChunkIndex int           `json:"chunk_index"`
	Text       string        `json:"text"`
	StartMS    int           `json:"start_ms"`
	EndMS      int           `json:"end_ms"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// VideoEntry describes one video inside a course directory.
type VideoEntry struct {
	Title           string `json:"title"`
	VideoPath       string `json:"video_path"`
	CollectionName  string `json:"collection_name"`
	OriginalDirName string `json:"original_dir_name"`
	Index           int    `json:"index"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"-"`
}

// Course groups the videos of one course directory for the library listing.
type Course struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	IsSeries       bool         `json:"is_series"`
	CollectionName string       `json:"collection_name"`
	OriginalDir    string       `json:"original_dir_name"`
	VideoURL       string       `json:"video_url,omitempty"`
	Thumbnail      string       `json:"thumbnail,omitempty"`
	TotalDuration  string       `json:"total_duration,omitempty"`
	VideoCount     int          `json:"video_count"`
	Videos         []VideoEntry `json:"series_videos_data"`
}
