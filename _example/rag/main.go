package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecsim"
	"github.com/hupe1980/vecsim/embedding"
	"github.com/hupe1980/vecsim/ingest"
)

const dimension = 128

func main() {
	ctx := context.Background()

	dir, err := vecsim.Open(ctx, "./data", vecsim.WithDimension(dimension))
	if err != nil {
		log.Fatal(err)
	}
	defer dir.Close()

	// Static embeddings keep the example self-contained. Swap in
	// embedding.NewOpenAI(apiKey) for real semantic vectors.
	source, err := embedding.NewStatic(dimension)
	if err != nil {
		log.Fatal(err)
	}

	pipeline, err := ingest.New(source, dir)
	if err != nil {
		log.Fatal(err)
	}

	docs := map[string]string{
		"go-concurrency": "Goroutines are lightweight threads managed by the Go runtime. Channels provide a way for goroutines to communicate and synchronize.",
		"go-errors":      "Errors in Go are values. Functions return errors as their last return value and callers check them explicitly.",
		"go-modules":     "Go modules define dependency requirements in a go.mod file. The go command resolves and downloads module versions automatically.",
	}

	for id, text := range docs {
		records, err := pipeline.IngestText(ctx, "docs", id, text)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("ingested %s as %d chunk(s)\n", id, len(records))
	}

	results, err := pipeline.Query(ctx, "docs", "how do goroutines talk to each other", 2)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("--- top matches ---")

	for _, res := range results {
		fmt.Printf("%s: %.4f\n", res.DocumentID, res.Score)
	}
}
