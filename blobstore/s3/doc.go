// Package s3 provides blobstore.Store implementations backed by Amazon
// S3, with an optional DynamoDB commit pointer for safe concurrent
// backup writers.
//
// # Basic Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := s3blob.NewStore(s3.NewFromConfig(cfg), "my-bucket", "backups/")
//	manifest, err := backup.Backup(ctx, dataDir, store)
//
// To guard the CURRENT pointer against concurrent writers, wrap the
// store:
//
//	committed := s3blob.NewDDBCommitStore(store,
//	    dynamodb.NewFromConfig(cfg), "vecsim-commits", "s3://my-bucket/backups")
package s3
