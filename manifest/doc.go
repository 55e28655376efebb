// Package manifest resolves the per-version download descriptor for the
// official symbol table.
//
// The upstream version manifest lists every known runtime version with the
// URL and SHA-1 of its descriptor document. The descriptor in turn carries a
// client and a server mappings download; [Distribution] selects between them.
//
// All upstream JSON is decoded into explicit schema structs and validated, so
// a malformed response fails with a FormatError at parse time rather than as
// an empty field discovered later.
package manifest
