package model

import "time"

// InspectionID names an inspection.
type InspectionID string

// Inspections known to cleanspring.
const (
	InspectionFieldInjection       InspectionID = "field-injection"
	InspectionSetterInjection      InspectionID = "setter-injection"
	InspectionUnusedInjectedField  InspectionID = "unused-injected-field"
	InspectionFieldAsBeanParameter InspectionID = "field-as-bean-parameter"
	InspectionUnnecessaryBean      InspectionID = "unnecessary-bean-method"
	InspectionPossiblyUnnecessary  InspectionID = "possibly-unnecessary-bean-method"
)

// Severity mirrors the highlight classes an editor would use.
type Severity int

const (
	// SeverityWarning marks code that should be rewritten.
	SeverityWarning Severity = iota
	// SeverityWeakWarning marks code that probably should be rewritten.
	SeverityWeakWarning
	// SeverityUnused marks dead declarations.
	SeverityUnused
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityWeakWarning:
		return "weak warning"
	case SeverityUnused:
		return "unused"
	}

	return "unknown"
}

// MarshalYAML writes the severity by name.
func (s Severity) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML reads a severity written by MarshalYAML.
func (s *Severity) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}

	switch name {
	case "weak warning":
		*s = SeverityWeakWarning
	case "unused":
		*s = SeverityUnused
	default:
		*s = SeverityWarning
	}

	return nil
}

// Confidence tells whether an applied rewrite is provably behavior-preserving.
type Confidence string

const (
	// ConfidenceHigh means every call site was rewritten from real data flow.
	ConfidenceHigh Confidence = "high"
	// ConfidenceLow means at least one call site received a placeholder value.
	ConfidenceLow Confidence = "low"
)

// Location points at a node in a file.
type Location struct {
	Path Path `yaml:"path"`
	Pos  Pos  `yaml:",inline"`
}

// Problem is a reported finding.
type Problem struct {
	ID         string       `yaml:"id"`
	Inspection InspectionID `yaml:"inspection"`
	Severity   Severity     `yaml:"severity"`
	Message    string       `yaml:"message"`
	Symbol     string       `yaml:"symbol"`
	Location   Location     `yaml:"location"`
	FixName    string       `yaml:"fix,omitempty"`
}

// FixResult records one fix application.
type FixResult struct {
	ProblemID  string       `yaml:"problem"`
	Inspection InspectionID `yaml:"inspection"`
	Symbol     string       `yaml:"symbol"`
	FixName    string       `yaml:"fix"`
	Applied    bool         `yaml:"applied"`
	Confidence Confidence   `yaml:"confidence,omitempty"`
	Warnings   []string     `yaml:"warnings,omitempty"`
	Error      string       `yaml:"error,omitempty"`
	Files      []Path       `yaml:"files,omitempty"`
}

// Report is what a run persists.
type Report struct {
	RunID     string      `yaml:"run_id"`
	CreatedAt time.Time   `yaml:"created_at"`
	Root      Path        `yaml:"root"`
	Profile   string      `yaml:"profile"`
	Problems  []Problem   `yaml:"problems"`
	Fixes     []FixResult `yaml:"fixes,omitempty"`
	Warnings  []string    `yaml:"warnings,omitempty"`
}
