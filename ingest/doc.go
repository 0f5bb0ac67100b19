// Package ingest drives the chunk → embed → store flow on top of a
// vecsim.Directory. It is the glue a retrieval application needs
// between raw documents and vector search, and nothing more: all
// state lives in the directory.
package ingest
