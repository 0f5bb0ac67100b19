package backup

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/vecsim/blobstore"
	"github.com/hupe1980/vecsim/codec"
)

// ManifestVersion is the manifest schema version written by this
// package.
const ManifestVersion = 1

const (
	snapshotPrefix = "snapshots/"
	manifestName   = "manifest.json"
	currentKey     = "CURRENT"
)

// FileEntry describes one data-directory file captured in a snapshot.
type FileEntry struct {
	// Name is the file name inside the data directory.
	Name string `json:"name"`

	// Object is the store key the payload was uploaded under.
	Object string `json:"object"`

	// Size is the uncompressed byte count.
	Size int64 `json:"size"`

	// Checksum is the CRC32 (IEEE) of the uncompressed bytes.
	Checksum uint32 `json:"crc32"`
}

// Manifest is the snapshot description stored next to the payloads. It
// is the unit the CURRENT pointer designates: a snapshot exists once
// its manifest is committed.
type Manifest struct {
	Version     int         `json:"version"`
	ID          string      `json:"id"`
	Compression Compression `json:"compression"`
	CreatedAt   time.Time   `json:"createdAt"`
	Files       []FileEntry `json:"files"`
}

// objectName returns the manifest's own store key.
func (m *Manifest) objectName() string {
	return path.Join(snapshotPrefix, m.ID, manifestName)
}

// Current returns the manifest the CURRENT pointer designates, or
// blobstore.ErrNotFound when no snapshot has been committed yet.
func Current(ctx context.Context, store blobstore.Store, optFns ...func(o *Options)) (*Manifest, error) {
	opts := applyOptions(optFns)

	rc, err := store.Open(ctx, currentKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	name, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read CURRENT pointer: %w", err)
	}

	return readManifest(ctx, store, opts.Codec, strings.TrimSpace(string(name)))
}

// Snapshots returns every committed manifest in the store, newest
// first. Snapshots whose manifest cannot be read are skipped.
func Snapshots(ctx context.Context, store blobstore.Store, optFns ...func(o *Options)) ([]*Manifest, error) {
	opts := applyOptions(optFns)

	names, err := store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to list snapshots: %w", err)
	}

	var manifests []*Manifest

	for _, name := range names {
		if path.Base(name) != manifestName {
			continue
		}

		m, err := readManifest(ctx, store, opts.Codec, name)
		if err != nil {
			continue
		}

		manifests = append(manifests, m)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].CreatedAt.After(manifests[j].CreatedAt)
	})

	return manifests, nil
}

// Delete removes a snapshot's payloads and manifest. The CURRENT
// pointer is left alone, so deleting the current snapshot leaves a
// dangling pointer; callers are expected to commit a newer snapshot
// first.
func Delete(ctx context.Context, store blobstore.Store, id string) error {
	if id == "" || strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("backup: invalid snapshot id %q", id)
	}

	names, err := store.List(ctx, path.Join(snapshotPrefix, id)+"/")
	if err != nil {
		return fmt.Errorf("backup: failed to list snapshot %s: %w", id, err)
	}

	for _, name := range names {
		if err := store.Delete(ctx, name); err != nil {
			return fmt.Errorf("backup: failed to delete %s: %w", name, err)
		}
	}

	return nil
}

func readManifest(ctx context.Context, store blobstore.Store, c codec.Codec, name string) (*Manifest, error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to open manifest %s: %w", name, err)
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("backup: failed to read manifest %s: %w", name, err)
	}

	var m Manifest
	if err := c.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("backup: failed to decode manifest %s: %w", name, err)
	}

	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("backup: unsupported manifest version %d in %s", m.Version, name)
	}

	if err := m.Compression.Validate(); err != nil {
		return nil, fmt.Errorf("backup: manifest %s: %w", name, err)
	}

	return &m, nil
}
