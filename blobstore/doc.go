// Package blobstore abstracts the object storage a backup is written
// to and restored from.
//
// The Store interface is intentionally small: backups move whole
// objects sequentially, so there is no random access and no partial
// update. Implementations exist for the local file system (LocalStore),
// plain memory (MemoryStore, for tests), MinIO (blobstore/minio) and
// Amazon S3 with an optional DynamoDB commit pointer (blobstore/s3).
package blobstore
