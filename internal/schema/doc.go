// Package schema declares the contact Field Schema: for every field name, its
// value shape and, for structured list fields, which sub-attributes are
// themselves multi-valued.
//
// The catalog lives in fields.cue and is compiled with the CUE SDK the first
// time Default is called. The Schema is the single source of truth for
// shape; the contact engine trusts it everywhere downstream of the
// Normalizer.
package schema
