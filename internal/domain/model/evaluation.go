package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// EvaluationFile pairs a discovered evaluation YAML file with its parsed document.
type EvaluationFile struct {
	Filename string
	Path     string
	Data     EvaluationDocument
}

// EvaluationDocument is the parsed shape of an evaluations/*.yaml file.
type EvaluationDocument struct {
	Meta        EvaluationMeta    `yaml:"meta"`
	Evaluations []EvaluationEntry `yaml:"evaluations"`
}

// EvaluationMeta names the evaluator and the scored dimensions.
type EvaluationMeta struct {
	Evaluator  Evaluator `yaml:"evaluator"`
	Dimensions []string  `yaml:"dimensions"`
}

// EvaluationEntry is a scored assessment of the training entry sharing its ID.
// An entry with zero measurements is treated as "no score" by the joiner.
type EvaluationEntry struct {
	ID           string        `yaml:"id"`
	Measurements []Measurement `yaml:"measurements"`
}

// HasMeasurements reports whether the entry carries at least one measurement.
func (e EvaluationEntry) HasMeasurements() bool {
	return len(e.Measurements) > 0
}

// Measurement is a single scored dimension (1..5 scale) within an evaluation
// entry.
type Measurement struct {
	Dimension string
	Score     float64
	Remarks   string
}

// measurementYAML mirrors Measurement for decoding. Evaluation authors use
// "remarks", "notes", or "comment" interchangeably for the free-form field.
type measurementYAML struct {
	Dimension string  `yaml:"dimension"`
	Score     float64 `yaml:"score"`
	Remarks   string  `yaml:"remarks"`
	Notes     string  `yaml:"notes"`
	Comment   string  `yaml:"comment"`
}

// UnmarshalYAML decodes a measurement, folding the remarks/notes/comment key
// variants into the single Remarks field, first non-empty wins.
func (m *Measurement) UnmarshalYAML(node *yaml.Node) error {
	var raw measurementYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	remarks := raw.Remarks
	if remarks == "" {
		remarks = raw.Notes
	}
	if remarks == "" {
		remarks = raw.Comment
	}

	*m = Measurement{
		Dimension: raw.Dimension,
		Score:     raw.Score,
		Remarks:   remarks,
	}
	return nil
}

// Evaluator identifies who produced an evaluation file. Source YAML allows
// either a bare string or a structured identity object, so this is a tagged
// union: exactly one of the Named/Detailed shapes is populated.
type Evaluator struct {
	// Named holds the evaluator when the YAML value was a plain string.
	Named string

	// Detailed holds the structured form when the YAML value was a mapping.
	Detailed *EvaluatorDetail
}

// EvaluatorDetail is the structured evaluator identity shape.
type EvaluatorDetail struct {
	Name        string `yaml:"name"`
	Username    string `yaml:"username"`
	DisplayName string `yaml:"displayName"`
	Email       string `yaml:"email"`
}

// UnmarshalYAML accepts either a scalar or a mapping evaluator value.
func (ev *Evaluator) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*ev = Evaluator{Named: name}
		return nil
	case yaml.MappingNode:
		var detail EvaluatorDetail
		if err := node.Decode(&detail); err != nil {
			return err
		}
		*ev = Evaluator{Detailed: &detail}
		return nil
	default:
		return fmt.Errorf("evaluator must be a string or a mapping, got yaml kind %d", node.Kind)
	}
}

// DisplayName resolves the evaluator identity for display. Resolution order
// for the detailed shape: name, username, displayName, email, then a
// serialized fallback of whatever fields are set.
func (ev Evaluator) DisplayName() string {
	if ev.Detailed == nil {
		return ev.Named
	}

	d := ev.Detailed
	switch {
	case d.Name != "":
		return d.Name
	case d.Username != "":
		return d.Username
	case d.DisplayName != "":
		return d.DisplayName
	case d.Email != "":
		return d.Email
	default:
		return fmt.Sprintf("%+v", *d)
	}
}

// IsZero reports whether no evaluator identity was provided at all.
func (ev Evaluator) IsZero() bool {
	return ev.Named == "" && ev.Detailed == nil
}
