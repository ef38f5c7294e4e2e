// Package harness runs completion scenarios and checks their results.
//
// A scenario names a study, a pipeline definition and the attributes to
// complete it with, then asserts on the resulting parameter values, the
// order of derivations and the outcome of each pipeline node.
//
// # Scenario Format
//
//	name: basic_completion
//	description: "Attributes flow from the pipeline into every node"
//	study: ../study.yaml
//	pipeline: ../pipelines/morphologist.yaml
//	name_override: ""
//	attributes: { subject: S01 }
//	parameters: {}
//	assertions:
//	  - type: param_equals
//	    path: segment
//	    param: t1
//	    value: /in/subjects/S01/t1mri/default_acquisition/S01.nii
//	  - type: param_unset
//	    path: write
//	    param: output_file
//	  - type: derivation_order
//	    order: [morphologist.segment.mask, morphologist.report]
//	  - type: outcome_status
//	    node: morphologist.notes
//	    status: skipped
//
// Study and pipeline paths are relative to the scenario file.
//
// # Assertion Types
//
//   - param_equals: the parameter at a node path holds value
//   - param_unset: the parameter at a node path holds nothing
//   - derivation_order: derivations appear in this relative order
//   - outcome_status: the last outcome recorded for a node has status
//
// Node paths are relative to the pipeline root; an empty path is the root.
// Derivation and outcome names are qualified names as the engine records
// them.
//
// # Deterministic Runs
//
// Every run uses a fresh registry, a logical clock starting at zero, a
// fixed run id and a fixed wall clock, and persists the run to an
// in-memory history store before the trace is read back. The same
// scenario therefore always produces a byte-identical trace for golden
// comparison.
package harness
