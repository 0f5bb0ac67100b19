// Package testutil provides seeded vector generators and brute-force
// ground truth for tests and benchmarks.
package testutil
