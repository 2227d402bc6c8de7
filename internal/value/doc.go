// Package value provides the canonical value union shared by every part of
// the contact engine.
//
// Records, sub-records and diffs are all built from the sealed Value
// interface: Null, String, Int, Bool, Time, List and Object. There is exactly
// one deep-equality function (Equal) and one canonical serialization
// (MarshalCanonical); the Differ, Merger and Patcher use nothing else for
// set-like comparison.
//
// Key constraints:
//   - NO float values - numbers are int64, integral floats are narrowed at the boundary
//   - Time values are UTC with millisecond precision
//   - Object key order never affects equality or canonical output
//
// This package imports nothing internal.
package value
