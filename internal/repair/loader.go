package repair

import (
	"fmt"
	"os"

	"github.com/solatis/schemamend/internal/types"
	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a set of repair plans.
type File struct {
	Version string       `yaml:"version"`
	Plans   []types.Plan `yaml:"plans"`
}

// LoadFile loads and parses a YAML plan file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Plans {
		if f.Plans[i].OnError == "" {
			f.Plans[i].OnError = types.OnErrorFail
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// MarshalPlan serializes a single plan to YAML, the form stored in the database.
func MarshalPlan(p *types.Plan) ([]byte, error) {
	return yaml.Marshal(p)
}

// ParsePlan parses a single plan stored with MarshalPlan.
func ParsePlan(data []byte) (*types.Plan, error) {
	var p types.Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse plan YAML: %w", err)
	}
	if p.OnError == "" {
		p.OnError = types.OnErrorFail
	}
	return &p, nil
}

// WriteFile writes a File to the given path.
func WriteFile(f *File, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan file %s: %w", path, err)
	}

	return nil
}
