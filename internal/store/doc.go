// Package store provides SQLite-backed durable storage for device
// telemetry readings.
//
// The store implements a single append-mostly table with:
//   - Insert-with-dedup: payload fingerprints are UNIQUE table-wide,
//     duplicate payloads are a reported outcome, never an error
//   - Ordered retrieval: per-device scans, newest first
//   - Retention pruning: age-based deletion across all devices
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// SQLite's own transaction discipline is the sole serialization point:
// every public operation is one statement or one transaction, so the
// store needs no locks of its own beyond the closed flag.
//
// Payloads are stored in the canonical JSON form produced by
// internal/record, and fingerprinted via SHA-256 with domain
// separation (record.Fingerprint).
package store
