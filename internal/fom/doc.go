// Package fom implements file organisation models: tables of path patterns
// keyed by process and parameter, and the resolver that turns attribute
// values into ranked candidate paths and back.
//
// A pattern is a slash separated template with <attribute> placeholders:
//
//	<center>/<subject>/t1mri/<acquisition>/<subject>
//
// Each rule lists formats; each format maps to one or more file extensions
// appended to the expanded pattern.
package fom
