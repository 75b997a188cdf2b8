// migrate-legacy converts a pre-multi-collection flat item list
// (colletr_items) into the current snapshot format without starting the
// server.
//
// Usage: migrate-legacy -backend=sqlite -sqlite=./colletr.db [-dry-run]
//
// The tool:
// 1. Reads the legacy blob; exits cleanly if none exists or a current
//    snapshot is already in place.
// 2. Wraps the items into one synthesized collection.
// 3. With -dry-run it only reports; otherwise it saves the new snapshot and
//    deletes the legacy key.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/colletr/colletr/backend/internal/models"
	"github.com/colletr/colletr/backend/internal/persist"
	"github.com/colletr/colletr/backend/internal/storage"
)

func main() {
	backend := flag.String("backend", "sqlite", "storage backend: sqlite or redis")
	sqlitePath := flag.String("sqlite", "./colletr.db", "sqlite database path")
	redisAddr := flag.String("redis-addr", "localhost:6379", "redis address")
	redisPassword := flag.String("redis-password", "", "redis password")
	redisDB := flag.Int("redis-db", 0, "redis database number")
	dryRun := flag.Bool("dry-run", false, "report what would happen without writing")
	flag.Parse()

	ctx := context.Background()

	var (
		blobStore storage.BlobStore
		err       error
	)
	switch *backend {
	case "sqlite":
		blobStore, err = storage.NewSQLiteStore(*sqlitePath)
	case "redis":
		blobStore, err = storage.NewRedisStore(ctx, *redisAddr, *redisPassword, *redisDB)
	default:
		log.Fatalf("unknown backend %q", *backend)
	}
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", *backend, err)
	}
	defer blobStore.Close()

	if _, err := blobStore.Get(ctx, persist.KeyCollections); err == nil {
		fmt.Println("Current snapshot already exists; nothing to migrate.")
		return
	} else if !errors.Is(err, storage.ErrKeyNotFound) {
		log.Fatalf("failed to check current snapshot: %v", err)
	}

	legacy, err := blobStore.Get(ctx, persist.KeyLegacyItems)
	if errors.Is(err, storage.ErrKeyNotFound) {
		fmt.Println("No legacy data found; nothing to migrate.")
		return
	}
	if err != nil {
		log.Fatalf("failed to read legacy data: %v", err)
	}

	var items []models.Item
	if err := json.Unmarshal(legacy, &items); err != nil {
		log.Fatalf("legacy data is corrupt: %v", err)
	}
	fmt.Printf("Found %d legacy item(s).\n", len(items))

	if *dryRun {
		for _, item := range items {
			fmt.Printf("  - %s (%s)\n", item.Name, item.Manufacturer)
		}
		fmt.Println("Dry run: no changes written.")
		return
	}

	adapter := persist.NewAdapter(blobStore)
	result, err := adapter.Load(ctx)
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if !result.Migrated {
		fmt.Println("Nothing was migrated.")
		os.Exit(1)
	}

	col := result.Collections[0]
	fmt.Printf("Migrated %d item(s) into collection %q (%s).\n",
		len(col.Items), col.Name, col.ID)
}
