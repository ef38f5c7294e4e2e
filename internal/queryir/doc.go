// Package queryir defines a small query tree for searching completion
// history, independent of the storage backend.
//
// A Query names a source table, the columns to return, an optional filter
// and an explicit order. Backends compile it (see querysql); they never
// receive raw filter text from users. Field names are checked against a
// Catalog before compilation because backends splice them into the query
// verbatim, while values are always passed as parameters.
//
// Supported predicates:
//   - Equals: field = value
//   - Under: field equals prefix or lies below it in dotted-name order
//   - And: conjunction, empty means always true
package queryir
