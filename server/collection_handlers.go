package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/AbdulbariSoylemez/SterkAgents/core"
)

// Collection preparation states reported to clients.
const (
	prepStatusProcessing = "processing"
	prepStatusExists     = "exists"
	prepStatusFailed     = "failed"
)

// collectionPrep tracks in-flight background collection builds so concurrent
// ensure/ask calls never start the same ingestion twice.
type collectionPrep struct {
	mu     sync.Mutex
	status map[string]string
}

func newCollectionPrep() *collectionPrep {
	return &collectionPrep{status: map[string]string{}}
}

// begin reports whether the caller should start a build. A failed build may
// be retried; a running or finished one may not.
func (p *collectionPrep) begin(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.status[name]; ok && st != prepStatusFailed {
		return false
	}
	p.status[name] = prepStatusProcessing
	return true
}

func (p *collectionPrep) finish(name string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.status[name] = prepStatusFailed
		return
	}
	p.status[name] = prepStatusExists
}

func (p *collectionPrep) get(name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.status[name]
	return st, ok
}

type EnsureCollectionRequest struct {
	CollectionName string `json:"collection_name"`
}

type EnsureCollectionResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	CollectionName string `json:"collection_name"`
}

type CheckCollectionResponse struct {
	Exists bool   `json:"exists"`
	Status string `json:"status,omitempty"`
}

// ensureCollection makes sure a course's chunks are in the vector store,
// building them in the background when absent. Returns the current status.
func (s *Server) ensureCollection(collection, dir string) string {
	if st, ok := s.prep.get(collection); ok && st != prepStatusFailed {
		return st
	}
	if has, err := s.store.Has(collection); err != nil {
		log.Printf("error checking collection %q: %v", collection, err)
	} else if has {
		s.prep.finish(collection, nil)
		return prepStatusExists
	}
	if !s.prep.begin(collection) {
		st, _ := s.prep.get(collection)
		return st
	}

	log.Printf("collection %q not found in store, starting background creation", collection)
	go func() {
		err := s.prepareCollection(collection, dir)
		if err != nil {
			log.Printf("error preparing collection %q: %v", collection, err)
		}
		s.prep.finish(collection, err)
	}()
	return prepStatusProcessing
}

// prepareCollection runs the full ingest pipeline over a course directory and
// upserts the result under the collection name.
func (s *Server) prepareCollection(collection, dir string) error {
	videoFiles := findVideos(dir)
	if len(videoFiles) == 0 {
		return fmt.Errorf("no supported video files in %s", dir)
	}
	sort.SliceStable(videoFiles, func(i, j int) bool {
		return sortKey(filepath.Base(videoFiles[i])) < sortKey(filepath.Base(videoFiles[j]))
	})

	chunks, summary := s.processVideos(core.NewID(), videoFiles)
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks created from any video in %s", dir)
	}

	count, err := s.store.Upsert(collection, chunks)
	if err != nil {
		return err
	}
	log.Printf("collection %q prepared: %d chunks from %d videos (%d failed)",
		collection, count, summary.ProcessedVideoCount, summary.FailedVideoCount)
	return nil
}

// ensureCollectionHandler resolves a collection to its course directory and
// kicks a background build when the store doesn't have it yet.
func (s *Server) ensureCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req EnsureCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON"})
		return
	}
	if strings.TrimSpace(req.CollectionName) == "" {
		core.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "collection_name required"})
		return
	}
	dir, ok := s.library.Resolve(req.CollectionName)
	if !ok {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Collection not found: %s", req.CollectionName)})
		return
	}

	status := s.ensureCollection(req.CollectionName, dir)
	message := fmt.Sprintf("Collection '%s' already exists", req.CollectionName)
	if status != prepStatusExists {
		message = fmt.Sprintf("Collection '%s' creation started in background", req.CollectionName)
	}
	core.WriteJSON(w, http.StatusOK, EnsureCollectionResponse{
		Status:         status,
		Message:        message,
		CollectionName: req.CollectionName,
	})
}

// checkCollectionHandler reports whether a collection's chunks are in the
// store, plus the background build status when one is running.
func (s *Server) checkCollectionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		core.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	name := r.PathValue("name")
	if _, ok := s.library.Resolve(name); !ok {
		core.WriteJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("Collection not found: %s", name)})
		return
	}

	has, err := s.store.Has(name)
	if err != nil {
		core.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": fmt.Sprintf("Server error: %v", err)})
		return
	}
	resp := CheckCollectionResponse{Exists: has}
	if st, ok := s.prep.get(name); ok {
		resp.Status = st
	}
	core.WriteJSON(w, http.StatusOK, resp)
}
