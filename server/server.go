package server

import (
	"net/http"
	"time"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/core"
	"github.com/AbdulbariSoylemez/SterkAgents/processors"
	"github.com/AbdulbariSoylemez/SterkAgents/storage"
)

// Server wires the transcript pipeline, the vector store, and the video
// library behind the HTTP surface. Every dependency is passed in at
// construction; handlers share no package-level state.
type Server struct {
	cfg     *config.Config
	store   storage.VectorStore
	library *Library
	chunker *processors.Chunker
	asr     processors.ASRProvider
	queries *QueryManager
	prep    *collectionPrep

	startTime time.Time
}

func NewServer(cfg *config.Config, store storage.VectorStore, library *Library, chunker *processors.Chunker, asr processors.ASRProvider) *Server {
	return &Server{
		cfg:       cfg,
		store:     store,
		library:   library,
		chunker:   chunker,
		asr:       asr,
		queries:   NewQueryManager(cfg, store, library),
		prep:      newCollectionPrep(),
		startTime: time.Now(),
	}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/process-directory", s.processDirectoryHandler)
	mux.HandleFunc("/create-collection", s.createCollectionHandler)
	mux.HandleFunc("/ensure-collection", s.ensureCollectionHandler)
	mux.HandleFunc("/check-collection/{name}", s.checkCollectionHandler)
	mux.HandleFunc("/ask", s.askHandler)
	mux.HandleFunc("/videos", s.videosHandler)
	mux.HandleFunc("/health", s.healthHandler)
}

func (s *Server) videosHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	core.WriteJSON(w, http.StatusOK, map[string]any{"videos": s.library.Courses})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	core.WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
		"courses":        len(s.library.Courses),
	})
}
