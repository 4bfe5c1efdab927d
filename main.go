package main

import (
	"log"
	"net/http"
	"os"

	"github.com/AbdulbariSoylemez/SterkAgents/config"
	"github.com/AbdulbariSoylemez/SterkAgents/processors"
	"github.com/AbdulbariSoylemez/SterkAgents/server"
	"github.com/AbdulbariSoylemez/SterkAgents/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// An incomplete config is survivable: the store falls back to the
	// in-memory backend, so warn instead of exiting.
	if err := cfg.Validate(); err != nil {
		log.Printf("Warning: %v", err)
		config.PrintConfigInstructions()
	}

	chunker, err := processors.NewChunker(cfg.SentencesPerChunk)
	if err != nil {
		log.Fatalf("invalid chunker configuration: %v", err)
	}

	library, err := server.ScanLibrary(cfg.VideosRoot)
	if err != nil {
		log.Fatalf("failed to scan video library: %v", err)
	}

	store := storage.NewVectorStore(cfg)
	defer store.Close()

	asr := processors.LocalWhisperASR{ModelSize: cfg.WhisperModelSize}

	srv := server.NewServer(cfg, store, library, chunker, asr)

	mux := http.NewServeMux()
	srv.Routes(mux)

	// Course videos and thumbnails are served straight from the videos root,
	// mirroring the paths the library listing hands out.
	mux.Handle("/"+cfg.VideosRoot+"/", http.StripPrefix("/"+cfg.VideosRoot+"/",
		http.FileServer(http.Dir(cfg.VideosRoot))))

	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}
	log.Printf("Server listening on %s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}
