// Package jsonfusion implements a schema-driven, protocol-agnostic
// structured-data codec. A schema is compiled once from a Go type via
// reflection; the same compiled schema then drives parsing and serialization
// over multiple wire formats (JSON, CBOR, YAML) through a common
// Reader/Writer contract.
//
// Validation constraints and wire options are declared on struct tags and
// enforced while parsing, so a successfully parsed value is already a valid
// one. Opaque sub-documents can be captured byte-exactly into a WireSink and
// replayed later through any writer of the same format.
package jsonfusion
