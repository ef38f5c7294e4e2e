package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pathfill/internal/fom"
)

func validTable() *fom.Table {
	return &fom.Table{
		Name:       "t",
		Attributes: map[string]fom.AttributeDef{"subject": {}, "side": {}},
		Formats:    map[string][]string{"NIFTI": {".nii"}},
		Processes: map[string]map[string][]fom.Rule{
			"p": {"x": {{Pattern: "<subject>/<fom_step>", Formats: []string{"NIFTI"}, Attributes: map[string]string{"side": "l"}}}},
		},
	}
}

func TestValidateValidTable(t *testing.T) {
	assert.Empty(t, Validate(validTable()))
}

func TestValidateEmptyTable(t *testing.T) {
	errs := Validate(&fom.Table{Name: "t"})
	require.Len(t, errs, 1)
	assert.Equal(t, ErrTableEmpty, errs[0].Code)
}

func TestValidateRuleErrors(t *testing.T) {
	tests := []struct {
		name  string
		rules []fom.Rule
		code  string
		field string
	}{
		{"unknown format", []fom.Rule{{Pattern: "<subject>", Formats: []string{"GIS"}}}, ErrUnknownFormat, "processes.p.x[0].formats[0]"},
		{"undefined placeholder", []fom.Rule{{Pattern: "<center>/<subject>"}}, ErrUndefinedAttribute, "processes.p.x[0].pattern"},
		{"undefined fixed attribute", []fom.Rule{{Pattern: "<subject>", Attributes: map[string]string{"hemi": "l"}}}, ErrUndefinedAttribute, "processes.p.x[0].attributes.hemi"},
		{"duplicate rule", []fom.Rule{{Pattern: "<subject>"}, {Pattern: "<subject>"}}, ErrDuplicateRule, "processes.p.x[1].pattern"},
		{"bad placeholder", []fom.Rule{{Pattern: "<subject"}}, ErrInvalidPlaceholder, "processes.p.x[0].pattern"},
		{"empty pattern", []fom.Rule{{Pattern: " "}}, ErrEmptyPattern, "processes.p.x[0].pattern"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := validTable()
			table.Processes["p"]["x"] = tt.rules
			errs := Validate(table)
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidateCollectsAllInOrder(t *testing.T) {
	table := validTable()
	table.Processes["b"] = map[string][]fom.Rule{"y": {{Pattern: "<nope>"}}}
	table.Processes["a"] = map[string][]fom.Rule{"z": {{Pattern: ""}}}

	errs := Validate(table)
	require.Len(t, errs, 2)
	assert.Equal(t, ErrEmptyPattern, errs[0].Code)
	assert.Equal(t, ErrUndefinedAttribute, errs[1].Code)
	assert.Contains(t, errs[1].Error(), "[E103] processes.b.y[0].pattern")
}
