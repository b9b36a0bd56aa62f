// README: Catalog loader; imports a provider JSONL export into Postgres and the search index.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"concierge/internal/catalog"
	"concierge/internal/config"
	"concierge/internal/infra"
	"concierge/internal/search"
)

func main() {
	file := flag.String("file", "", "JSONL export with one typed attribute document per line")
	skipIndex := flag.Bool("skip-index", false, "load Postgres only, leave the search index alone")
	flag.Parse()

	if *file == "" {
		log.Fatal("-file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	store := catalog.NewStore(dbPool)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	var loaded, skipped int
	var docs []search.Doc

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var doc map[string]json.RawMessage
		if err := json.Unmarshal(line, &doc); err != nil {
			skipped++
			continue
		}
		id, cuisine, ok := catalog.DocKey(doc)
		if !ok {
			skipped++
			continue
		}

		if err := store.Put(ctx, id, cuisine, json.RawMessage(append([]byte(nil), line...))); err != nil {
			log.Fatalf("put %s: %v", id, err)
		}
		loaded++
		docs = append(docs, search.Doc{RestaurantID: id, Cuisine: cuisine})
	}
	if err := scanner.Err(); err != nil {
		log.Fatal(err)
	}

	log.Printf("catalog load complete: loaded=%d skipped=%d", loaded, skipped)

	if *skipIndex {
		return
	}

	client := search.NewClient(search.Config(cfg.Search))
	if err := client.BulkIndex(ctx, docs); err != nil {
		log.Fatalf("bulk index: %v", err)
	}
	log.Printf("indexed %d docs into %s", len(docs), cfg.Search.Index)
}
