package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/clinlabel/labelstation/internal/aicore"
	"github.com/clinlabel/labelstation/internal/config"
	"github.com/clinlabel/labelstation/internal/database"
	"github.com/clinlabel/labelstation/internal/gallery"
)

func main() {
	cfg := config.Load()

	fmt.Println("🔍 Checking ai-core Backend")
	fmt.Println("===========================")
	fmt.Printf("Backend URL: %s\n\n", cfg.AICoreURL)

	client := aicore.NewClient(cfg.AICoreURL)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	buckets := []gallery.Bucket{gallery.BucketAll, gallery.BucketTodo, gallery.BucketReview, gallery.BucketDone}
	g := gallery.New(client)

	reachable := false
	for _, bucket := range buckets {
		page, err := g.List(ctx, bucket, 1, "")
		if err != nil {
			fmt.Printf("❌ %-7s unreachable: %v\n", bucket, err)
			continue
		}
		reachable = true
		fmt.Printf("✅ %-7s %d images across %d pages\n", bucket, page.TotalItems, page.TotalPages)
	}

	if !reachable {
		log.Fatal("Backend is not reachable. Check AI_CORE_URL.")
	}

	fmt.Println()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		fmt.Printf("⚠️  Draft database unavailable: %v\n", err)
		return
	}
	defer db.Close()

	var draftCount int
	if err := db.Conn().QueryRow("SELECT COUNT(*) FROM drafts").Scan(&draftCount); err != nil {
		fmt.Printf("⚠️  Failed to count drafts: %v\n", err)
		return
	}
	fmt.Printf("📝 Unsaved local drafts: %d\n", draftCount)

	fmt.Println("\n✅ Workstation is ready.")
}
