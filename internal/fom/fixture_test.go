package fom

func morphoTable() *Table {
	return &Table{
		Name: "morpho-1.0",
		Attributes: map[string]AttributeDef{
			"center":      {Default: "subjects"},
			"subject":     {},
			"session":     {Default: "1"},
			"acquisition": {Default: "default_acquisition"},
			"analysis":    {Default: "default_analysis"},
		},
		Formats: map[string][]string{
			"NIFTI":    {".nii"},
			"NIFTI gz": {".nii.gz"},
			"GIS":      {".ima", ".dim"},
			"Graph":    {".arg"},
			"Text":     {".txt"},
		},
		Processes: map[string]map[string][]Rule{
			"segment": {
				"t1": {
					{Pattern: "<center>/<subject>/t1mri/<acquisition>/<subject>", Formats: []string{"NIFTI", "NIFTI gz", "GIS"}},
				},
				"mask": {
					{Pattern: "<center>/<subject>/t1mri/<acquisition>/<analysis>/brain_<subject>", Formats: []string{"NIFTI"}},
				},
				"report": {
					{Pattern: "<center>/<subject>/report_<side>", Formats: []string{"Text"}, Attributes: map[string]string{"side": "left"}},
					{Pattern: "<center>/<subject>/report_both", Formats: []string{"Text"}, Attributes: map[string]string{"side": "both"}},
				},
				"workdir": {
					{Pattern: "<center>/<subject>/work/<fom_step>"},
				},
			},
			"write": {
				"output_file": {
					{Pattern: "<subject>/<session>/out", Formats: []string{"NIFTI"}},
				},
			},
		},
	}
}
