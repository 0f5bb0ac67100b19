package persistence

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/vecsim/codec"
	"github.com/hupe1980/vecsim/model"
	"github.com/hupe1980/vecsim/resource"
)

// FormatVersion is the sidecar schema version written by this package.
const FormatVersion = 1

const (
	recordsSuffix = ".json"
	metaSuffix    = ".meta.json"
)

// Error describes a file-level save or load failure for one collection.
type Error struct {
	Op   string // "init", "save", "load" or "delete"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// SkippedRecord notes one entry dropped while loading a records file.
type SkippedRecord struct {
	Index  int // zero-based position in the records array
	Reason string
}

// LoadReport summarizes what a load actually recovered.
type LoadReport struct {
	Loaded  int
	Skipped []SkippedRecord

	// ChecksumMismatch is set when the sidecar checksum does not match
	// the records file read back. The load still returns whatever
	// parsed; callers decide how loudly to complain.
	ChecksumMismatch *ChecksumMismatchError

	// SidecarMissing reports that no usable meta sidecar was found next
	// to the records file. Plane state is lost in that case.
	SidecarMissing bool
}

// Snapshot is the complete persisted state of one collection.
type Snapshot struct {
	Dimension int
	Records   []model.VectorRecord
	Planes    [][]float32

	// LastID is the highest internal id the collection ever issued,
	// including ids whose records were removed before the save.
	LastID uint64
}

// Meta is the sidecar written next to each records file. It carries
// everything the records file's public format cannot: the hashing
// planes, an integrity checksum and provenance for debugging.
type Meta struct {
	Version   int         `json:"version"`
	Codec     string      `json:"codec"`
	Dimension int         `json:"dimension"`
	Count     int         `json:"count"`
	LastID    uint64      `json:"lastId,omitempty"`
	Checksum  uint32      `json:"crc32"`
	Planes    [][]float32 `json:"planes,omitempty"`
	SavedAt   time.Time   `json:"savedAt"`
}

// Options configures an Adapter.
type Options struct {
	// Codec encodes individual records and the meta sidecar. Its output
	// must be standard JSON so the records file stays readable by plain
	// JSON tooling.
	Codec codec.Codec

	// Throttle caps snapshot write bandwidth. Nil means unlimited.
	Throttle *resource.IOThrottle
}

// DefaultOptions holds the options for a new Adapter.
var DefaultOptions = Options{
	Codec: codec.Default,
}

// Adapter owns the on-disk layout of a base directory: one records file
// plus one meta sidecar per collection, replaced wholesale on save.
type Adapter struct {
	dir      string
	codec    codec.Codec
	throttle *resource.IOThrottle
}

// New creates an Adapter rooted at dir, creating dir if needed.
func New(dir string, optFns ...func(o *Options)) (*Adapter, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if dir == "" {
		return nil, errors.New("base directory must not be empty")
	}

	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &Error{Op: "init", Path: dir, Err: err}
	}

	return &Adapter{
		dir:      dir,
		codec:    opts.Codec,
		throttle: opts.Throttle,
	}, nil
}

// Dir returns the base directory.
func (a *Adapter) Dir() string {
	return a.dir
}

// RecordsPath returns the records file path for a collection.
func (a *Adapter) RecordsPath(name string) string {
	return filepath.Join(a.dir, name+recordsSuffix)
}

// MetaPath returns the sidecar path for a collection.
func (a *Adapter) MetaPath(name string) string {
	return filepath.Join(a.dir, name+metaSuffix)
}

// Save replaces the collection's file pair with the given snapshot. The
// records file is written first so its checksum can be recorded in the
// sidecar, and both files are renamed into place together.
func (a *Adapter) Save(ctx context.Context, name string, snap Snapshot) error {
	if err := ValidateName(name); err != nil {
		return &Error{Op: "save", Path: a.dir, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return &Error{Op: "save", Path: a.RecordsPath(name), Err: err}
	}

	var checksum uint32

	files := []FileWrite{
		{
			Name: name + recordsSuffix,
			Write: func(w io.Writer) error {
				cw := NewChecksumWriter(resource.NewRateLimitedWriter(w, a.throttle, ctx))
				if err := writeRecordsArray(cw, a.codec, snap.Records); err != nil {
					return err
				}
				checksum = cw.Sum()
				return nil
			},
		},
		{
			Name: name + metaSuffix,
			Write: func(w io.Writer) error {
				meta := Meta{
					Version:   FormatVersion,
					Codec:     a.codec.Name(),
					Dimension: snap.Dimension,
					Count:     len(snap.Records),
					LastID:    snap.LastID,
					Checksum:  checksum,
					Planes:    snap.Planes,
					SavedAt:   time.Now().UTC(),
				}

				b, err := a.codec.Marshal(meta)
				if err != nil {
					return fmt.Errorf("failed to encode sidecar: %w", err)
				}

				_, err = w.Write(b)

				return err
			},
		},
	}

	if err := AtomicWriteFiles(a.dir, files); err != nil {
		return &Error{Op: "save", Path: a.RecordsPath(name), Err: err}
	}

	return nil
}

// Load reads the collection's file pair back into a snapshot. A missing
// records file yields an empty snapshot: the collection simply has not
// been persisted yet. Entries that fail to decode, carry an unparsable
// id or have the wrong embedding length are skipped and reported; only
// structural failures (unreadable file, broken JSON framing) abort the
// load.
func (a *Adapter) Load(ctx context.Context, name string, dimension int) (Snapshot, LoadReport, error) {
	var (
		snap   Snapshot
		report LoadReport
	)

	snap.Dimension = dimension

	if err := ValidateName(name); err != nil {
		return snap, report, &Error{Op: "load", Path: a.dir, Err: err}
	}

	if err := ctx.Err(); err != nil {
		return snap, report, &Error{Op: "load", Path: a.RecordsPath(name), Err: err}
	}

	path := a.RecordsPath(name)

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return snap, report, nil
	}

	if err != nil {
		return snap, report, &Error{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	meta, metaErr := a.readMeta(name)
	if metaErr != nil {
		report.SidecarMissing = true
	}

	entryCodec := a.codec
	if meta != nil && meta.Codec != "" {
		if c, ok := codec.ByName(meta.Codec); ok {
			entryCodec = c
		}
	}

	cr := NewChecksumReader(bufio.NewReader(f))
	dec := json.NewDecoder(cr)

	tok, err := dec.Token()
	if err != nil {
		return snap, report, &Error{Op: "load", Path: path, Err: fmt.Errorf("failed to read array start: %w", err)}
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return snap, report, &Error{Op: "load", Path: path, Err: fmt.Errorf("expected JSON array, got %v", tok)}
	}

	index := 0

	for dec.More() {
		if err := ctx.Err(); err != nil {
			return snap, report, &Error{Op: "load", Path: path, Err: err}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return snap, report, &Error{Op: "load", Path: path, Err: fmt.Errorf("failed to read record %d: %w", index, err)}
		}

		var rec model.VectorRecord
		if err := entryCodec.Unmarshal(raw, &rec); err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Index:  index,
				Reason: fmt.Sprintf("malformed record: %v", err),
			})
			index++

			continue
		}

		if _, err := model.ParseID(rec.ID); err != nil {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Index:  index,
				Reason: err.Error(),
			})
			index++

			continue
		}

		if dimension > 0 && len(rec.Embedding) != dimension {
			report.Skipped = append(report.Skipped, SkippedRecord{
				Index:  index,
				Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", dimension, len(rec.Embedding)),
			})
			index++

			continue
		}

		snap.Records = append(snap.Records, rec)
		index++
	}

	if _, err := dec.Token(); err != nil {
		return snap, report, &Error{Op: "load", Path: path, Err: fmt.Errorf("failed to read array end: %w", err)}
	}

	// Drain trailing whitespace so the checksum covers the whole file.
	if _, err := io.Copy(io.Discard, cr); err != nil {
		return snap, report, &Error{Op: "load", Path: path, Err: err}
	}

	report.Loaded = len(snap.Records)

	if meta != nil {
		snap.Planes = meta.Planes
		snap.LastID = meta.LastID

		if meta.Checksum != 0 {
			if err := cr.Verify(meta.Checksum); err != nil {
				var mismatch *ChecksumMismatchError
				if errors.As(err, &mismatch) {
					report.ChecksumMismatch = mismatch
				}
			}
		}
	}

	return snap, report, nil
}

// Delete removes the collection's file pair and reports whether a
// records file existed. Missing files are not an error, so deleting a
// never-saved collection is a no-op.
func (a *Adapter) Delete(name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, &Error{Op: "delete", Path: a.dir, Err: err}
	}

	existed := false

	if err := os.Remove(a.RecordsPath(name)); err == nil {
		existed = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, &Error{Op: "delete", Path: a.RecordsPath(name), Err: err}
	}

	if err := os.Remove(a.MetaPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return existed, &Error{Op: "delete", Path: a.MetaPath(name), Err: err}
	}

	return existed, nil
}

// DiscoverCollections lists, in sorted order, the collection names that
// have a records file in the base directory.
func (a *Adapter) DiscoverCollections() ([]string, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, &Error{Op: "load", Path: a.dir, Err: err}
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fname := entry.Name()
		if strings.HasSuffix(fname, metaSuffix) || !strings.HasSuffix(fname, recordsSuffix) {
			continue
		}

		name := strings.TrimSuffix(fname, recordsSuffix)
		if name == "" {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

func (a *Adapter) readMeta(name string) (*Meta, error) {
	b, err := os.ReadFile(a.MetaPath(name))
	if err != nil {
		return nil, err
	}

	var meta Meta
	if err := a.codec.Unmarshal(b, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// writeRecordsArray streams records as a JSON array with one record per
// line, keeping the file diffable by line-oriented tools.
func writeRecordsArray(w io.Writer, c codec.Codec, records []model.VectorRecord) error {
	if len(records) == 0 {
		_, err := io.WriteString(w, "[]\n")
		return err
	}

	if _, err := io.WriteString(w, "[\n"); err != nil {
		return err
	}

	for i := range records {
		b, err := c.Marshal(records[i])
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %w", i, err)
		}

		if i > 0 {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, "  "); err != nil {
			return err
		}

		if _, err := w.Write(b); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "\n]\n")

	return err
}

// ValidateName rejects collection names that cannot serve as file
// names: empty strings, anything with path separators and names that
// would collide with sidecar naming.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("collection name must not be empty")
	}

	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("collection name %q must not contain path separators", name)
	}

	if strings.HasSuffix(name, ".meta") {
		return fmt.Errorf("collection name %q collides with sidecar naming", name)
	}

	return nil
}
