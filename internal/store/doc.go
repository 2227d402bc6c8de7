// Package store persists canonical contact records in SQLite.
//
// Tables:
//   - contacts: one row per record, holding the canonical JSON of the whole
//     record, its revision hash and a display name for listings
//   - contact_data: one row per element of every list field, so values such
//     as an email address can be looked up without decoding records
//   - pending_diffs: diffs queued for deferred application, keyed by their
//     content hash
//
// Records and diffs are stored as RFC 8785 canonical JSON. Listings are
// ordered by id COLLATE BINARY so results are stable.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
