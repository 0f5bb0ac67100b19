// Package embedding generates fixed-length vectors from text.
//
// The Source interface decouples the store from the embedding
// provider. OpenAI talks to any OpenAI-compatible embeddings endpoint;
// Static is a deterministic hashing source for tests and examples.
package embedding
