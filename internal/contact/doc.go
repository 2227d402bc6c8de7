// Package contact reconciles contact records.
//
// A raw field map (decoded JSON, YAML or importer output) becomes a canonical
// Record through Normalize. Canonical Records then flow through three
// operations:
//
//   - Diff partitions the differences between two Records into added,
//     removed and changed fields.
//   - Merge unions two copies of the same logical contact.
//   - ApplyDiff patches a Record toward the Record that produced a Diff.
//
// Every operation compares values with value.Equal. Merge and ApplyDiff
// mutate and return their receiver; clone first if the previous value is
// still needed. A Record must not be shared across goroutines while it is
// being merged or patched.
//
// The shape of every field comes from the schema package. The Normalizer is
// the only place where shapes are checked; Diff and Merge trust that their
// inputs are canonical.
package contact
