package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecsim"
)

func main() {
	ctx := context.Background()

	dir, err := vecsim.Open(ctx, "./data",
		vecsim.WithDimension(4),
		vecsim.WithRandomSeed(4711),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer dir.Close()

	coll, err := dir.Collection("fruits")
	if err != nil {
		log.Fatal(err)
	}

	vectors := map[string][]float32{
		"apple":  {1, 0, 0, 0},
		"pear":   {0.9, 0.1, 0, 0},
		"banana": {0, 1, 0, 0},
	}

	for doc, vec := range vectors {
		rec, err := coll.Add(ctx, doc, vec)
		if err != nil {
			log.Fatal(err)
		}

		fmt.Printf("stored %s as id %s\n", doc, rec.ID)
	}

	fmt.Println("--- exact search for something apple-like ---")

	results, err := coll.ExactSearch(ctx, []float32{0.95, 0.05, 0, 0}, 2)
	if err != nil {
		log.Fatal(err)
	}

	for _, res := range results {
		fmt.Printf("%s (id %s): %.4f\n", res.DocumentID, res.ID, res.Score)
	}

	fmt.Println("--- approximate search, same query ---")

	results, err = coll.ApproximateSearch(ctx, []float32{0.95, 0.05, 0, 0}, 2)
	if err != nil {
		log.Fatal(err)
	}

	for _, res := range results {
		fmt.Printf("%s (id %s): %.4f\n", res.DocumentID, res.ID, res.Score)
	}

	stats := coll.Stats()
	fmt.Printf("collection %q: %d records, %d bytes, %d buckets\n",
		stats.Name, stats.Count, stats.UsedBytes, stats.Buckets)
}
