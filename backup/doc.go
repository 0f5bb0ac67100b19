// Package backup moves a data directory's collection files in and out
// of a blobstore.Store.
//
// A backup is a snapshot: every records file and meta sidecar is
// compressed and uploaded under snapshots/<id>/, described by a
// manifest carrying per-file checksums, and committed by pointing the
// CURRENT object at the manifest. Restore reads CURRENT, verifies
// every payload against the manifest and replaces the data directory's
// files in one atomic step.
//
//	manifest, err := backup.Backup(ctx, dir.Dir(), store)
//	...
//	manifest, err = backup.Restore(ctx, store, freshDir)
//
// The store decides where snapshots live: local disk, memory, MinIO or
// S3 (optionally with a DynamoDB-guarded CURRENT pointer for
// concurrent writers).
package backup
