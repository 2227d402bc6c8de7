// Package legacy maps entries of a legacy local address book onto raw
// contact field maps.
//
// An address book export is a YAML document listing directories. Each
// directory holds cards (flat property maps such as FirstName or HomeCity)
// and optional mailing lists. Every card becomes a contact.RawMap tagged
// with the categories of the directory and of the mailing lists that
// reference it. The raw maps still go through contact.Normalize.
package legacy
