package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/clinlabel/labelstation/internal/aicore"
	"github.com/clinlabel/labelstation/internal/api"
	"github.com/clinlabel/labelstation/internal/config"
	"github.com/clinlabel/labelstation/internal/database"
	"github.com/clinlabel/labelstation/internal/gallery"
	"github.com/clinlabel/labelstation/internal/overlay"
	"github.com/clinlabel/labelstation/internal/storage"
	"github.com/clinlabel/labelstation/internal/workspace"
)

func main() {
	cfg := config.Load()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	previewStorage, err := storage.NewLocalStorage(cfg.PreviewDir)
	if err != nil {
		log.Fatal("Failed to initialize preview storage:", err)
	}

	client := aicore.NewClient(cfg.AICoreURL)
	drafts := database.NewDraftRepository(db)

	hub := api.NewHub()
	go hub.Run()

	app := &api.App{
		Gallery:     gallery.New(client),
		Sessions:    workspace.NewManager(client, drafts),
		Previews:    workspace.NewPreviewRegistry(previewStorage),
		Fetcher:     overlay.NewFetcher(cfg.ImageCacheTTL),
		Hub:         hub,
		DefaultUser: cfg.DefaultUser,
	}

	router := api.NewRouter(app)

	log.Printf("Server starting on port %d", cfg.Port)
	log.Printf("Backend: %s", cfg.AICoreURL)
	log.Printf("Draft database: %s", cfg.DBPath)
	log.Printf("Preview directory: %s", cfg.PreviewDir)

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), router); err != nil {
		log.Fatal(err)
	}
}
