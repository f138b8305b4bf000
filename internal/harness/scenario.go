package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden
	// file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps is the sequence of user-level operations to execute.
	Steps []Step `yaml:"steps"`
}

// Step is a single user-level operation.
type Step struct {
	// Op is one of: signup, login, logout, add, toggle, delete, filter.
	Op string `yaml:"op"`

	// Email and Password are used by signup and login.
	Email    string `yaml:"email,omitempty"`
	Password string `yaml:"password,omitempty"`

	// Text is the item text for add, and the item reference for toggle
	// and delete: those steps act on the snapshot item carrying this text.
	Text string `yaml:"text,omitempty"`

	// Mode is the filter mode for the filter op (all|active|completed).
	Mode string `yaml:"mode,omitempty"`

	// ExpectError, when set, requires the step to fail with an error
	// containing this substring. The failure is recorded in the trace.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step op constants.
const (
	OpSignup = "signup"
	OpLogin  = "login"
	OpLogout = "logout"
	OpAdd    = "add"
	OpToggle = "toggle"
	OpDelete = "delete"
	OpFilter = "filter"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails loudly instead of silently skipping a check.
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

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpSignup, OpLogin:
		if s.Email == "" {
			return fmt.Errorf("steps[%d]: email is required for %s", index, s.Op)
		}
		if s.Password == "" {
			return fmt.Errorf("steps[%d]: password is required for %s", index, s.Op)
		}
	case OpLogout:
	case OpAdd, OpToggle, OpDelete:
		if s.Text == "" {
			return fmt.Errorf("steps[%d]: text is required for %s", index, s.Op)
		}
	case OpFilter:
		if s.Mode == "" {
			return fmt.Errorf("steps[%d]: mode is required for filter", index)
		}
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}
