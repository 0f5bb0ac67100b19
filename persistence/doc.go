// Package persistence serializes collections to an on-disk file pair
// and replays them at startup.
//
// Each collection owns two files in the base directory:
//
//	<name>.json       JSON array of records, the public format
//	<name>.meta.json  sidecar with planes, checksum and provenance
//
// Saves replace both files wholesale via temp-and-rename, so a crash
// mid-save leaves the previous pair intact. Loads are forgiving at the
// record level (bad entries are skipped and reported) and strict at the
// file level (an unreadable or structurally broken file fails its
// collection without touching siblings).
package persistence
