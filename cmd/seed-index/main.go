package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/config"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/knowledge"
	"github.com/Ara-Yeroyan/veggy-menu-item-extractor/internal/vecindex"
)

// #region main

// seed-index populates the knowledge store and pushes the entries into
// the similarity index so the retrieval layer has something to match
// against.
func main() {
	reset := flag.Bool("reset", false, "reseed even if the store already has entries")
	skipIndex := flag.Bool("skip-index", false, "seed the store only, skip the similarity index")
	flag.Parse()

	cfg := config.FromEnv()

	store, err := knowledge.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	n, err := store.CountEntries()
	if err != nil {
		log.Fatalf("failed to count entries: %v", err)
	}
	if n > 0 && !*reset {
		fmt.Printf("Store already has %d entries (use -reset to reseed)\n", n)
	} else {
		if err := store.Seed(knowledge.DefaultBase()); err != nil {
			log.Fatalf("failed to seed store: %v", err)
		}
		n, _ = store.CountEntries()
		fmt.Printf("Seeded %d knowledge entries into %s\n", n, cfg.DBPath)
	}

	if *skipIndex {
		return
	}

	base, err := store.LoadBase()
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var seeder vecindex.Seeder
	if cfg.IndexURL != "" {
		seeder = vecindex.NewRemote(cfg.IndexURL, 30*time.Second)
		fmt.Printf("Upserting %d entries into index at %s...\n", len(base.Entries), cfg.IndexURL)
	} else {
		fmt.Fprintln(os.Stderr, "no VEGGY_INDEX_URL set; the embedded index is built at startup and needs no seeding")
		return
	}

	if err := seeder.Upsert(ctx, base.Entries); err != nil {
		log.Fatalf("index upsert failed: %v", err)
	}
	fmt.Println("Index seeded.")
}

// #endregion main
