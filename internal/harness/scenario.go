package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one completion test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Study is the study configuration file.
	Study string `yaml:"study"`

	// Pipeline is the process or pipeline definition to complete.
	Pipeline string `yaml:"pipeline"`

	// NameOverride is passed to the registry as the strategy name. Empty
	// means the process is looked up by id then name.
	NameOverride string `yaml:"name_override,omitempty"`

	// Attributes seed the root strategy's attribute store.
	Attributes map[string]any `yaml:"attributes,omitempty"`

	// Parameters are written to the root process before completion.
	Parameters map[string]any `yaml:"parameters,omitempty"`

	// Assertions validate the completed tree and the trace.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Assertion validates one aspect of a completed run.
type Assertion struct {
	// Type is one of param_equals, param_unset, derivation_order,
	// outcome_status.
	Type string `yaml:"type"`

	// Path is the dotted node path from the root (param_equals,
	// param_unset). Empty means the root itself.
	Path string `yaml:"path,omitempty"`

	// Param is the parameter name (param_equals, param_unset).
	Param string `yaml:"param,omitempty"`

	// Value is the expected parameter value (param_equals).
	Value any `yaml:"value,omitempty"`

	// Order lists "process.param" derivation keys (derivation_order).
	Order []string `yaml:"order,omitempty"`

	// Node is the qualified node name (outcome_status).
	Node string `yaml:"node,omitempty"`

	// Status is the expected node status (outcome_status).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertParamEquals     = "param_equals"
	AssertParamUnset      = "param_unset"
	AssertDerivationOrder = "derivation_order"
	AssertOutcomeStatus   = "outcome_status"
)

var validStatuses = map[string]bool{
	"completed": true,
	"fallback":  true,
	"failed":    true,
	"skipped":   true,
}

// LoadScenario reads and parses a scenario YAML file. Study and pipeline
// paths are resolved against the scenario's directory. Unknown fields are
// rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Study = resolvePath(base, scenario.Study)
	scenario.Pipeline = resolvePath(base, scenario.Pipeline)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Study == "" {
		return fmt.Errorf("study is required")
	}
	if s.Pipeline == "" {
		return fmt.Errorf("pipeline is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, p := range []string{s.Study, s.Pipeline} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", p)
		}
	}
	for k, v := range s.Attributes {
		if v == nil {
			return fmt.Errorf("attributes.%s: null values are not allowed", k)
		}
	}
	for k, v := range s.Parameters {
		if v == nil {
			return fmt.Errorf("parameters.%s: null values are not allowed", k)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertParamEquals:
		if a.Param == "" {
			return fmt.Errorf("assertions[%d]: param is required for param_equals", index)
		}
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for param_equals (use param_unset for no value)", index)
		}
	case AssertParamUnset:
		if a.Param == "" {
			return fmt.Errorf("assertions[%d]: param is required for param_unset", index)
		}
	case AssertDerivationOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order list is required for derivation_order", index)
		}
	case AssertOutcomeStatus:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for outcome_status", index)
		}
		if !validStatuses[a.Status] {
			return fmt.Errorf("assertions[%d]: unknown status %q for outcome_status", index, a.Status)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
