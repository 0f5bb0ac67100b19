package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/vecsim"
	"github.com/hupe1980/vecsim/chunk"
	"github.com/hupe1980/vecsim/embedding"
	"github.com/hupe1980/vecsim/model"
)

// Options configures a Pipeline.
type Options struct {
	// Splitter turns documents into embeddable passages. Defaults to
	// chunk.NewText().
	Splitter chunk.Splitter
}

// Pipeline wires a splitter, an embedding source and a directory into
// the chunk → embed → add flow. It holds no state beyond its
// collaborators, so one pipeline may serve any number of collections.
type Pipeline struct {
	splitter chunk.Splitter
	source   embedding.Source
	dir      *vecsim.Directory
}

// New creates a Pipeline over the given embedding source and
// directory.
func New(source embedding.Source, dir *vecsim.Directory, optFns ...func(o *Options)) (*Pipeline, error) {
	opts := Options{}

	for _, fn := range optFns {
		fn(&opts)
	}

	if source == nil {
		return nil, errors.New("ingest: embedding source must not be nil")
	}

	if dir == nil {
		return nil, errors.New("ingest: directory must not be nil")
	}

	if opts.Splitter == nil {
		opts.Splitter = chunk.NewText()
	}

	return &Pipeline{
		splitter: opts.Splitter,
		source:   source,
		dir:      dir,
	}, nil
}

// IngestText chunks the text, embeds every chunk, and stores the
// vectors under documentID in the named collection. It returns the
// stored records, one per chunk, in document order.
//
// A document that splits into no chunks (empty or whitespace-only
// text) stores nothing and returns an empty slice.
func (p *Pipeline) IngestText(ctx context.Context, collection, documentID, text string) ([]model.VectorRecord, error) {
	chunks := p.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := p.source.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("ingest: failed to embed %q: %w", documentID, err)
	}

	coll, err := p.dir.Collection(collection)
	if err != nil {
		return nil, err
	}

	records := make([]model.VectorRecord, 0, len(vectors))

	for i, vec := range vectors {
		rec, err := coll.Add(ctx, documentID, vec)
		if err != nil {
			return records, fmt.Errorf("ingest: failed to store chunk %d of %q: %w", i, documentID, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

// Query embeds the text and runs a search against the named
// collection. Approximate selects the bucketed search path instead of
// the full scan.
func (p *Pipeline) Query(ctx context.Context, collection, text string, k int, optFns ...func(o *QueryOptions)) ([]model.SearchResult, error) {
	opts := QueryOptions{}

	for _, fn := range optFns {
		fn(&opts)
	}

	vec, err := p.source.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("ingest: failed to embed query: %w", err)
	}

	coll, err := p.dir.Collection(collection)
	if err != nil {
		return nil, err
	}

	req := coll.Search(vec).K(k)

	if opts.Approximate {
		req = req.Approximate()
	}

	if len(opts.WithinDocuments) > 0 {
		req = req.Within(opts.WithinDocuments...)
	}

	return req.Execute(ctx)
}

// Remove deletes every record stored under documentID in the named
// collection and reports how many chunks went away.
func (p *Pipeline) Remove(ctx context.Context, collection, documentID string) (int, error) {
	coll, err := p.dir.Collection(collection)
	if err != nil {
		return 0, err
	}

	return coll.Remove(ctx, documentID)
}

// QueryOptions configures a Query call.
type QueryOptions struct {
	// Approximate answers from the query's hyperplane bucket instead
	// of scanning the whole collection.
	Approximate bool

	// WithinDocuments restricts results to the given document IDs.
	WithinDocuments []string
}
