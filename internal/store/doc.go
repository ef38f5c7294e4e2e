// Package store provides SQLite-backed history of completion runs.
//
// Each run row holds the inputs of one top-level completion; its
// derivations and node outcomes hang off it and are written in the same
// transaction.
//
// # Critical Patterns
//
// Logical ordering:
//   - Derivations and outcomes are ordered by seq, NEVER by timestamps
//   - All queries include ORDER BY seq ASC so replays compare cleanly
//
// Canonical values:
//   - Attributes, parameters and derived values are stored as RFC 8785
//     canonical JSON produced by internal/ir
//
// Search:
//   - SearchDerivations builds a queryir query and compiles it with
//     querysql, so filter values never reach the SQL text
//
// # Database Configuration
//
// Open applies the pragmas listed in store.go and keeps a single
// connection, which ":memory:" databases need. Process prefixes in
// SearchDerivations match case-sensitively.
package store
