// Package compiler turns CUE template table declarations into fom.Table
// values and checks them for consistency.
//
// Tables are declared under a top-level fom struct:
//
//	fom: "morpho-1.0": {
//		attributes: center: default: "subjects"
//		formats: NIFTI: [".nii"]
//		processes: segment: t1: [
//			{pattern: "<center>/<subject>/t1mri/<subject>", formats: ["NIFTI"]},
//		]
//	}
//
// A rule may also be written as a bare pattern string.
package compiler
