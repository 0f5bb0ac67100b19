package vecsim

import (
	"context"

	"github.com/hupe1980/vecsim/model"
)

// Search creates a new fluent search builder for the given query
// vector. The search is exact unless Approximate is called.
//
// Example:
//
//	results, err := coll.Search(query).
//	    K(10).
//	    Approximate().
//	    Execute(ctx)
func (c *Collection) Search(query []float32) *SearchRequest {
	return &SearchRequest{
		coll:  c,
		query: query,
		k:     10, // Default k
	}
}

// SearchRequest is a fluent builder for constructing search queries.
type SearchRequest struct {
	coll        *Collection
	query       []float32
	k           int
	approximate bool
	documentIDs []string
}

// K sets the number of results to return.
func (sr *SearchRequest) K(k int) *SearchRequest {
	sr.k = k
	return sr
}

// Approximate answers the query from the hyperplane bucket it hashes
// to instead of scanning the whole collection.
func (sr *SearchRequest) Approximate() *SearchRequest {
	sr.approximate = true
	return sr
}

// Exact scans every record. This is the default.
func (sr *SearchRequest) Exact() *SearchRequest {
	sr.approximate = false
	return sr
}

// Within restricts results to records stored under the given document
// IDs.
func (sr *SearchRequest) Within(documentIDs ...string) *SearchRequest {
	sr.documentIDs = append(sr.documentIDs, documentIDs...)
	return sr
}

// Execute runs the search and returns the results.
func (sr *SearchRequest) Execute(ctx context.Context) ([]model.SearchResult, error) {
	optFns := []func(o *SearchOptions){}
	if len(sr.documentIDs) > 0 {
		optFns = append(optFns, func(o *SearchOptions) {
			o.WithinDocuments = sr.documentIDs
		})
	}

	if sr.approximate {
		return sr.coll.ApproximateSearch(ctx, sr.query, sr.k, optFns...)
	}

	return sr.coll.ExactSearch(ctx, sr.query, sr.k, optFns...)
}

// MustExecute runs the search, panicking on error.
// Use this only in tests or when you're certain the query is valid.
func (sr *SearchRequest) MustExecute(ctx context.Context) []model.SearchResult {
	results, err := sr.Execute(ctx)
	if err != nil {
		panic(err)
	}
	return results
}

// First returns only the best-scoring result, or ErrNotFound if the
// search matches nothing.
func (sr *SearchRequest) First(ctx context.Context) (model.SearchResult, error) {
	sr.k = 1
	results, err := sr.Execute(ctx)
	if err != nil {
		return model.SearchResult{}, err
	}
	if len(results) == 0 {
		return model.SearchResult{}, ErrNotFound
	}
	return results[0], nil
}

// Count executes the search and returns the number of results.
func (sr *SearchRequest) Count(ctx context.Context) (int, error) {
	results, err := sr.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(results), nil
}

// Exists checks if at least one result matches the search.
func (sr *SearchRequest) Exists(ctx context.Context) (bool, error) {
	sr.k = 1
	results, err := sr.Execute(ctx)
	if err != nil {
		return false, err
	}
	return len(results) > 0, nil
}
