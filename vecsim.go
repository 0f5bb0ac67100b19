package vecsim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecsim/engine"
	"github.com/hupe1980/vecsim/internal/dirlock"
	"github.com/hupe1980/vecsim/model"
	"github.com/hupe1980/vecsim/persistence"
	"github.com/hupe1980/vecsim/resource"
)

// loadConcurrency caps how many collections are restored in parallel
// during Open.
const loadConcurrency = 4

// Directory is the root handle over a data directory of vector
// collections. Each collection is an independent store persisted as a
// JSON file pair inside the directory.
//
// A Directory is safe for concurrent use. It holds an advisory lock on
// the data directory for its lifetime, so a second Open of the same
// directory fails until Close.
type Directory struct {
	mu          sync.Mutex // Protects collections and closed
	dir         string
	opts        options
	adapter     *persistence.Adapter
	lock        *dirlock.Lock
	collections map[string]*Collection
	metrics     MetricsCollector
	logger      *Logger
	closed      bool
}

// Open opens the data directory at path, restoring every collection
// persisted inside it, and returns a handle for creating and querying
// collections. The directory is created if it does not exist.
//
// Collections whose files cannot be read are logged and skipped so one
// damaged file never blocks the rest of the directory. Individual bad
// records inside a readable file are skipped the same way.
//
// The returned Directory must be Close()'d to release the directory
// lock.
func Open(ctx context.Context, path string, optFns ...Option) (*Directory, error) {
	opts := applyOptions(optFns)

	var throttle *resource.IOThrottle
	if opts.writeBytesPerSec > 0 {
		throttle = resource.NewIOThrottle(opts.writeBytesPerSec)
	}

	adapter, err := persistence.New(path, func(o *persistence.Options) {
		o.Codec = opts.codec
		o.Throttle = throttle
	})
	if err != nil {
		return nil, fmt.Errorf("vecsim: failed to open data directory: %w", err)
	}

	lock, err := dirlock.Acquire(adapter.Dir())
	if err != nil {
		return nil, fmt.Errorf("vecsim: failed to lock data directory: %w", err)
	}

	d := &Directory{
		dir:         adapter.Dir(),
		opts:        opts,
		adapter:     adapter,
		lock:        lock,
		collections: make(map[string]*Collection),
		metrics:     opts.metricsCollector,
		logger:      opts.logger,
	}

	if err := d.loadExisting(ctx); err != nil {
		_ = lock.Release()
		return nil, err
	}

	return d, nil
}

// loadExisting restores every collection found on disk. Startup always
// restores what exists, even beyond the collection cap: the cap bounds
// creation, not recovery.
func (d *Directory) loadExisting(ctx context.Context) error {
	names, err := d.adapter.DiscoverCollections()
	if err != nil {
		return fmt.Errorf("vecsim: failed to scan data directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for _, name := range names {
		g.Go(func() error {
			snap, report, err := d.adapter.Load(ctx, name, d.opts.dimension)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				// A damaged collection must not block its siblings.
				d.logger.LogLoad(ctx, name, 0, 0, err)
				return nil
			}

			for _, skipped := range report.Skipped {
				d.logger.WarnContext(ctx, "skipping unreadable record",
					"collection", name,
					"index", skipped.Index,
					"reason", skipped.Reason,
				)
			}
			if report.ChecksumMismatch != nil {
				d.logger.WarnContext(ctx, "records file failed checksum verification",
					"collection", name,
					"error", report.ChecksumMismatch,
				)
			}

			restoreOpts := append(d.engineOptions(), func(o *engine.Options) {
				o.IDFloor = snap.LastID
			})
			eng, restore, err := engine.Restore(name, snap.Records, snap.Planes, restoreOpts...)
			if err != nil {
				d.logger.LogLoad(ctx, name, 0, 0, err)
				return nil
			}
			if restore.Dropped > 0 {
				d.logger.WarnContext(ctx, "dropped records during restore",
					"collection", name,
					"dropped", restore.Dropped,
				)
			}

			d.mu.Lock()
			d.collections[name] = newCollection(name, d, eng)
			d.mu.Unlock()

			d.logger.LogLoad(ctx, name, restore.Restored, len(report.Skipped)+restore.Dropped, nil)

			return nil
		})
	}

	return g.Wait()
}

// engineOptions maps the directory-level configuration onto a fresh
// engine.
func (d *Directory) engineOptions() []func(o *engine.Options) {
	return []func(o *engine.Options){
		func(o *engine.Options) {
			o.Dimension = d.opts.dimension
			o.MemoryCeilingBytes = d.opts.memoryCeilingBytes
			o.Planes = d.opts.planes
			o.RandomSeed = d.opts.randomSeed
			o.Logger = engineLogger{l: d.logger}
		},
	}
}

// Collection returns the collection with the given name, creating it
// if it does not exist yet. Creation fails with
// ErrCollectionLimitExceeded once the directory holds the configured
// maximum number of collections.
//
// A freshly created collection writes no files until its first
// mutation.
func (d *Directory) Collection(name string) (*Collection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}

	if err := persistence.ValidateName(name); err != nil {
		return nil, fmt.Errorf("vecsim: %w", err)
	}

	if c, ok := d.collections[name]; ok {
		return c, nil
	}

	if len(d.collections) >= d.opts.maxCollections {
		return nil, &ErrCollectionLimitExceeded{Limit: d.opts.maxCollections}
	}

	eng, err := engine.New(name, d.engineOptions()...)
	if err != nil {
		return nil, translateError(err)
	}

	c := newCollection(name, d, eng)
	d.collections[name] = c

	return c, nil
}

// Drop removes the collection with the given name from memory and
// deletes its files. It reports whether the collection existed, either
// open or on disk. Dropping an unknown name is a no-op.
func (d *Directory) Drop(ctx context.Context, name string) (bool, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false, ErrClosed
	}
	_, existed := d.collections[name]
	delete(d.collections, name)
	d.mu.Unlock()

	fileExisted, err := d.adapter.Delete(name)
	existed = existed || fileExisted

	d.logger.LogDrop(ctx, name, existed, err)

	return existed, err
}

// List returns the names of all open collections in sorted order.
func (d *Directory) List() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.collections))
	for name := range d.collections {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Dir returns the data directory path.
func (d *Directory) Dir() string {
	return d.dir
}

// Stats returns a point-in-time snapshot of the directory and every
// open collection, sorted by collection name.
func (d *Directory) Stats() model.DirectoryStats {
	d.mu.Lock()
	open := make([]*Collection, 0, len(d.collections))
	for _, c := range d.collections {
		open = append(open, c)
	}
	d.mu.Unlock()

	stats := model.DirectoryStats{
		MaxCollections: d.opts.maxCollections,
		Collections:    make([]model.CollectionStats, 0, len(open)),
	}
	for _, c := range open {
		stats.Collections = append(stats.Collections, c.Stats())
	}
	sort.Slice(stats.Collections, func(i, j int) bool {
		return stats.Collections[i].Name < stats.Collections[j].Name
	})

	return stats
}

func (d *Directory) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.closed
}
