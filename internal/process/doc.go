// Package process provides the concrete process model completion runs on.
//
// A Process is a leaf with named parameters, some flagged as outputs. A
// Pipeline is a Process with ordered child nodes and links between
// parameters. Setting a linked parameter pushes the value along every link
// leaving it, so a path derived for one node's output becomes the input of
// the node downstream.
//
// Pipelines order their nodes topologically with declaration order as the
// tie-break; a cycle is reported with the nodes that form it.
//
// Definitions are YAML documents validated against an embedded JSON
// schema before they are built.
package process
