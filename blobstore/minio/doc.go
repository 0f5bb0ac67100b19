// Package minio provides a blobstore.Store implementation using the
// MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system.
// The package works with any S3-compatible backend (Ceph, Garage,
// SeaweedFS) and needs no AWS dependencies.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "my-bucket", "backups/")
//	manifest, err := backup.Backup(ctx, dataDir, store)
package minio
