package backup

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecsim/blobstore"
	"github.com/hupe1980/vecsim/codec"
	"github.com/hupe1980/vecsim/persistence"
	"github.com/hupe1980/vecsim/resource"
)

// Options configures Backup and Restore.
type Options struct {
	// Codec encodes the manifest. Defaults to codec.Default.
	Codec codec.Codec

	// Compression applied to payloads. Defaults to CompressionZSTD.
	Compression Compression

	// Concurrency caps parallel uploads during Backup. Defaults to 4.
	Concurrency int

	// Throttle caps upload bandwidth. Nil means unlimited.
	Throttle *resource.IOThrottle
}

// DefaultOptions holds the options used when none are supplied.
var DefaultOptions = Options{
	Codec:       codec.Default,
	Compression: CompressionZSTD,
	Concurrency: 4,
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if opts.Compression == "" {
		opts.Compression = CompressionZSTD
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions.Concurrency
	}

	return opts
}

// Backup captures every collection file in dataDir into the store as a
// new snapshot and commits it as CURRENT. Payloads upload in parallel;
// the manifest and the CURRENT pointer are written only after every
// payload is in place, so a failed backup never becomes visible.
//
// Flush collections before calling Backup so the files on disk reflect
// the in-memory state. The data directory may stay open: saves replace
// files atomically, and Backup reads each file through a single open
// handle.
func Backup(ctx context.Context, dataDir string, store blobstore.Store, optFns ...func(o *Options)) (*Manifest, error) {
	opts := applyOptions(optFns)

	if err := opts.Compression.Validate(); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	fileNames, err := collectionFiles(dataDir)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		ID:          newSnapshotID(),
		Compression: opts.Compression,
		CreatedAt:   time.Now().UTC(),
		Files:       make([]FileEntry, len(fileNames)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, name := range fileNames {
		g.Go(func() error {
			object := path.Join(snapshotPrefix, manifest.ID, name) + opts.Compression.ext()

			size, sum, err := uploadFile(gctx, store, opts, filepath.Join(dataDir, name), object)
			if err != nil {
				return fmt.Errorf("backup: failed to upload %s: %w", name, err)
			}

			manifest.Files[i] = FileEntry{
				Name:     name,
				Object:   object,
				Size:     size,
				Checksum: sum,
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Name < manifest.Files[j].Name
	})

	b, err := opts.Codec.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to encode manifest: %w", err)
	}

	if err := store.Put(ctx, manifest.objectName(), bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("backup: failed to upload manifest: %w", err)
	}

	if err := store.Put(ctx, currentKey, strings.NewReader(manifest.objectName())); err != nil {
		return nil, fmt.Errorf("backup: failed to commit snapshot: %w", err)
	}

	return manifest, nil
}

// Restore downloads the CURRENT snapshot into dataDir, replacing the
// collection files there in one atomic step. Every payload is verified
// against its manifest checksum before anything is renamed into place.
//
// Restore into a directory that is not open in a running Directory;
// engines already holding the old state will not pick up the restored
// files.
func Restore(ctx context.Context, store blobstore.Store, dataDir string, optFns ...func(o *Options)) (*Manifest, error) {
	opts := applyOptions(optFns)

	manifest, err := Current(ctx, store, func(o *Options) { o.Codec = opts.Codec })
	if err != nil {
		return nil, err
	}

	files := make([]persistence.FileWrite, 0, len(manifest.Files))

	for _, entry := range manifest.Files {
		files = append(files, persistence.FileWrite{
			Name: entry.Name,
			Write: func(w io.Writer) error {
				return downloadFile(ctx, store, manifest.Compression, entry, w)
			},
		})
	}

	if err := persistence.AtomicWriteFiles(dataDir, files); err != nil {
		return nil, fmt.Errorf("backup: failed to restore into %s: %w", dataDir, err)
	}

	return manifest, nil
}

// uploadFile streams one file into the store, compressing on the way
// and checksumming the uncompressed bytes.
func uploadFile(ctx context.Context, store blobstore.Store, opts Options, filePath, object string) (int64, uint32, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	pr, pw := io.Pipe()

	done := make(chan error, 1)

	go func() {
		err := store.Put(ctx, object, pr)
		// Unblock the writer side if the store stopped reading early.
		_ = pr.CloseWithError(err)
		done <- err
	}()

	cr := persistence.NewChecksumReader(bufio.NewReader(f))

	comp, err := opts.Compression.NewWriter(resource.NewRateLimitedWriter(pw, opts.Throttle, ctx))
	if err != nil {
		_ = pw.CloseWithError(err)
		<-done

		return 0, 0, err
	}

	size, copyErr := io.Copy(comp, cr)
	if copyErr == nil {
		copyErr = comp.Close()
	}

	_ = pw.CloseWithError(copyErr)

	putErr := <-done

	// A failed Put surfaces on the write side as a closed pipe; the
	// store's own error is the one worth reporting.
	if putErr != nil {
		return 0, 0, putErr
	}

	if copyErr != nil {
		return 0, 0, copyErr
	}

	return size, cr.Sum(), nil
}

// downloadFile streams one payload out of the store into w, verifying
// size and checksum of the decompressed bytes.
func downloadFile(ctx context.Context, store blobstore.Store, compression Compression, entry FileEntry, w io.Writer) error {
	rc, err := store.Open(ctx, entry.Object)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", entry.Object, err)
	}
	defer rc.Close()

	dec, err := compression.NewReader(bufio.NewReader(rc))
	if err != nil {
		return err
	}
	defer dec.Close()

	cr := persistence.NewChecksumReader(dec)

	size, err := io.Copy(w, cr)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", entry.Object, err)
	}

	if size != entry.Size {
		return fmt.Errorf("size mismatch for %s: expected %d bytes, got %d", entry.Name, entry.Size, size)
	}

	if err := cr.Verify(entry.Checksum); err != nil {
		return fmt.Errorf("corrupt payload for %s: %w", entry.Name, err)
	}

	return nil
}

// collectionFiles lists the records and sidecar files in dataDir.
// Anything else (the directory lock, stray temp files) stays out of
// the snapshot.
func collectionFiles(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read data directory %s: %w", dataDir, err)
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".json") || strings.Contains(name, ".tmp-") {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func newSnapshotID() string {
	return time.Now().UTC().Format("20060102T150405.000000000Z")
}
