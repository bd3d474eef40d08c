// Package model contains the core domain types for tome repositories.
package model

import (
	"fmt"
	"strings"
)

// RepositoryRef identifies a public GitHub repository hosting a tome
// (training/evaluation YAML files plus a tome.yaml metadata file).
type RepositoryRef struct {
	Source string // Original caller-supplied value, e.g. "github.com/alice/growth-journal".
	Owner  string
	Name   string
}

// ParseRepositoryRef parses a caller-supplied source string of the form
// "github.com/{owner}/{repo}". Anything not hosted on github.com is rejected.
func ParseRepositoryRef(source string) (RepositoryRef, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(source), "https://")
	trimmed = strings.TrimPrefix(trimmed, "http://")
	trimmed = strings.TrimSuffix(trimmed, "/")

	idx := strings.Index(trimmed, "github.com/")
	if idx < 0 {
		return RepositoryRef{}, fmt.Errorf("invalid repository source %q: expected github.com/{owner}/{repo}", source)
	}

	rest := trimmed[idx+len("github.com/"):]
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return RepositoryRef{}, fmt.Errorf("invalid repository source %q: expected github.com/{owner}/{repo}", source)
	}

	return RepositoryRef{
		Source: source,
		Owner:  parts[0],
		Name:   parts[1],
	}, nil
}

// FullName returns the "owner/name" form used by the GitHub API.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Name
}

// Student is the person whose training log the repository contains.
type Student struct {
	Name string `yaml:"name"`
}

// RepositoryMetadata is parsed from tome.yaml at the repository root.
// Absence of the file does not invalidate a fetch as long as training or
// evaluation data exists; the loader substitutes UnknownStudentName.
type RepositoryMetadata struct {
	Student Student `yaml:"student"`
}

// UnknownStudentName is the sentinel used when tome.yaml is missing or does
// not name a student.
const UnknownStudentName = "Unknown"

// RepositoryData is the raw result of a full repository load, before joining
// and calendar projection.
type RepositoryData struct {
	Repository      RepositoryRef
	Metadata        RepositoryMetadata
	TrainingFiles   []TrainingFile
	EvaluationFiles []EvaluationFile
}

// EvaluationFor returns the evaluation document whose filename matches the
// given training filename, or nil when no evaluation file shares its name.
func (d *RepositoryData) EvaluationFor(filename string) *EvaluationDocument {
	for i := range d.EvaluationFiles {
		if d.EvaluationFiles[i].Filename == filename {
			return &d.EvaluationFiles[i].Data
		}
	}
	return nil
}
