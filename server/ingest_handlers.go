package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
	"github.com/AbdulbariSoylemez/SterkAgents/processors"
)

type ProcessDirectoryRequest struct {
	DirectoryPath string `json:"directory_path"`
}

type ProcessDirectorySummary struct {
	TotalChunksCreated  int      `json:"total_chunks_created"`
	ProcessedVideoCount int      `json:"processed_video_count"`
	FailedVideoCount    int      `json:"failed_video_count"`
	ProcessedFiles      []string `json:"processed_files"`
	FailedFiles         []string `json:"failed_files"`
}

type ProcessDirectoryResponse struct {
	CollectionName string                  `json:"collection_name"`
	Chunks         []core.Chunk            `json:"chunks"`
	Summary        ProcessDirectorySummary `json:"summary"`
}

type CreateCollectionRequest struct {
	CollectionName string       `json:"collection_name"`
	Chunks         []core.Chunk `json:"chunks"`
}

type CreateCollectionResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	CollectionName string `json:"collection_name"`
	ChunksAdded    int    `json:"chunks_added"`
}

// processDirectoryHandler transcribes and chunks every supported video in a
// directory. Individual video failures are collected and reported; they never
// abort the rest of the batch.
func (s *Server) processDirectoryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req ProcessDirectoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}

	info, err := os.Stat(req.DirectoryPath)
	if err != nil || !info.IsDir() {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Directory not found: %s", req.DirectoryPath)})
		return
	}

	videoFiles := findVideos(req.DirectoryPath)
	if len(videoFiles) == 0 {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "No supported video files found in directory"})
		return
	}
	sort.SliceStable(videoFiles, func(i, j int) bool {
		return sortKey(filepath.Base(videoFiles[i])) < sortKey(filepath.Base(videoFiles[j]))
	})

	collectionName := filepath.Base(filepath.Clean(req.DirectoryPath))
	batchID := core.NewID()
	log.Printf("[batch %s] processing %d videos from %q into collection %q", batchID, len(videoFiles), req.DirectoryPath, collectionName)

	chunks, summary := s.processVideos(batchID, videoFiles)
	resp := ProcessDirectoryResponse{
		CollectionName: collectionName,
		Chunks:         chunks,
		Summary:        summary,
	}

	if len(resp.Chunks) == 0 {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "No RAG data could be created from any video in directory"})
		return
	}
	core.WriteJSON(w, http.StatusOK, resp)
}

// processVideos runs the transcript pipeline over a file list with bounded
// concurrency. Per-file failures end up in the summary, never abort the rest.
func (s *Server) processVideos(batchID string, videoFiles []string) ([]core.Chunk, ProcessDirectorySummary) {
	type fileResult struct {
		file   string
		chunks []core.Chunk
		err    error
	}
	results := make([]fileResult, len(videoFiles))

	workers := s.cfg.IngestWorkers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, videoFile := range videoFiles {
		wg.Add(1)
		go func(i int, videoFile string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			chunks, err := s.processVideoFile(videoFile)
			results[i] = fileResult{file: filepath.Base(videoFile), chunks: chunks, err: err}
		}(i, videoFile)
	}
	wg.Wait()

	chunks := []core.Chunk{}
	summary := ProcessDirectorySummary{
		ProcessedFiles: []string{},
		FailedFiles:    []string{},
	}
	for _, res := range results {
		if res.err != nil {
			log.Printf("[batch %s] error processing %q: %v", batchID, res.file, res.err)
			summary.FailedFiles = append(summary.FailedFiles, res.file)
			continue
		}
		chunks = append(chunks, res.chunks...)
		summary.ProcessedFiles = append(summary.ProcessedFiles, res.file)
		log.Printf("successfully processed %q - %d chunks added", res.file, len(res.chunks))
	}
	summary.TotalChunksCreated = len(chunks)
	summary.ProcessedVideoCount = len(summary.ProcessedFiles)
	summary.FailedVideoCount = len(summary.FailedFiles)
	return chunks, summary
}

// processVideoFile runs one video through transcript extraction and chunking.
// A sidecar subtitle file next to the video takes precedence over running
// speech recognition.
func (s *Server) processVideoFile(videoFile string) ([]core.Chunk, error) {
	log.Printf("processing: %s", videoFile)

	segments, err := s.videoTranscript(videoFile)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filepath.Base(videoFile), err)
	}

	videoTitle := filepath.Base(videoFile)
	videoID := core.Slugify(strings.TrimSuffix(videoTitle, filepath.Ext(videoTitle)))

	chunks := s.chunker.Chunk(segments, videoID, videoTitle)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks created for %s", videoTitle)
	}
	return chunks, nil
}

// videoTranscript prefers a .vtt or .srt sidecar with the video's name; only
// when neither exists is the audio extracted and transcribed.
func (s *Server) videoTranscript(videoFile string) ([]core.TranscriptSegment, error) {
	stem := strings.TrimSuffix(videoFile, filepath.Ext(videoFile))
	for _, ext := range []string{".vtt", ".srt"} {
		data, err := os.ReadFile(stem + ext)
		if err != nil {
			continue
		}
		log.Printf("using subtitle sidecar %s", filepath.Base(stem+ext))
		return processors.ParseSubtitles(string(data))
	}

	tmpDir, err := os.MkdirTemp("", "sterk-ingest-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	audioPath := filepath.Join(tmpDir, "audio.wav")
	if err := processors.ExtractAudio(videoFile, audioPath); err != nil {
		return nil, err
	}
	return s.asr.Transcribe(audioPath)
}

// createCollectionHandler embeds a chunk batch and persists it under a named
// collection in the configured vector store.
func (s *Server) createCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.CollectionName) == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "collection_name required"})
		return
	}
	if len(req.Chunks) == 0 {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "chunks required"})
		return
	}

	log.Printf("creating collection %q with %d chunks", req.CollectionName, len(req.Chunks))
	count, err := s.store.Upsert(req.CollectionName, req.Chunks)
	if err != nil {
		log.Printf("error creating collection %q: %v", req.CollectionName, err)
		core.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Server error: %v", err)})
		return
	}

	core.WriteJSON(w, http.StatusOK, CreateCollectionResponse{
		Status:         "success",
		Message:        fmt.Sprintf("Collection '%s' created successfully", req.CollectionName),
		CollectionName: req.CollectionName,
		ChunksAdded:    count,
	})
}
