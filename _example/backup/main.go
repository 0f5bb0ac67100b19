package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/vecsim"
	"github.com/hupe1980/vecsim/backup"
	"github.com/hupe1980/vecsim/blobstore"
)

func main() {
	ctx := context.Background()

	dir, err := vecsim.Open(ctx, "./data", vecsim.WithDimension(4))
	if err != nil {
		log.Fatal(err)
	}

	coll, err := dir.Collection("fruits")
	if err != nil {
		log.Fatal(err)
	}

	if _, err := coll.Add(ctx, "apple", []float32{1, 0, 0, 0}); err != nil {
		log.Fatal(err)
	}

	if err := coll.Flush(ctx); err != nil {
		log.Fatal(err)
	}

	if err := dir.Close(); err != nil {
		log.Fatal(err)
	}

	// A local store stands in for S3 or MinIO here. Swap in
	// s3.New(client, bucket) or minio.New(client, bucket) for the cloud.
	store, err := blobstore.NewLocalStore("./backups")
	if err != nil {
		log.Fatal(err)
	}

	manifest, err := backup.Backup(ctx, "./data", store, func(o *backup.Options) {
		o.Compression = backup.CompressionZSTD
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("snapshot %s: %d file(s)\n", manifest.ID, len(manifest.Files))

	for _, f := range manifest.Files {
		fmt.Printf("  %s -> %s (%d bytes)\n", f.Name, f.Object, f.Size)
	}

	if _, err := backup.Restore(ctx, store, "./restored"); err != nil {
		log.Fatal(err)
	}

	restored, err := vecsim.Open(ctx, "./restored", vecsim.WithDimension(4))
	if err != nil {
		log.Fatal(err)
	}
	defer restored.Close()

	coll, err = restored.Collection("fruits")
	if err != nil {
		log.Fatal(err)
	}

	results, err := coll.ExactSearch(ctx, []float32{1, 0, 0, 0}, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("restored search hit: %s (%.4f)\n", results[0].DocumentID, results[0].Score)
}
