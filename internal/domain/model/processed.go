package model

import "time"

// EvalSummary is the evaluation side of a joined training entry. Score is
// the arithmetic mean of all measurement scores rounded to two decimals; nil
// means the entry has no matching evaluation or the evaluation carried zero
// measurements ("no score").
type EvalSummary struct {
	Score        *float64
	Notes        string
	Evaluator    string
	Measurements []Measurement
}

// HasScore reports whether the entry was actually scored.
func (s EvalSummary) HasScore() bool {
	return s.Score != nil
}

// ProcessedTrainingEntry is a TrainingEntry enriched with rendered HTML for
// its free-text fields, readable/relative timestamps, and the joined
// evaluation summary. This is the canonical unit consumed by the calendar
// projection and the API layer.
type ProcessedTrainingEntry struct {
	TrainingEntry

	// Rendered HTML (sanitized). Empty source fields stay empty; renderer
	// failures fall back to the raw unrendered text.
	DoingTodayHTML    string
	DoneYesterdayHTML string
	BlockersHTML      string

	// Date is the parsed Datetime, zero when Datetime was not parseable.
	Date time.Time

	// DatetimeReadable is the ISO date truncated to day (YYYY-MM-DD).
	DatetimeReadable string

	// DatetimeRelative is a locale-relative phrase such as "3 days ago".
	DatetimeRelative string

	Eval EvalSummary
}

// HasDate reports whether the entry's datetime was parseable.
func (e ProcessedTrainingEntry) HasDate() bool {
	return !e.Date.IsZero()
}

// ProcessedTrainingFile is a training file after joining against its
// evaluation document, entries sorted by datetime descending.
type ProcessedTrainingFile struct {
	Filename string
	Path     string
	Data     []ProcessedTrainingEntry
}

// ProcessedRepositoryData is the full outbound payload of the pipeline:
// raw fetched files plus the joined entry lists, ready for projection.
type ProcessedRepositoryData struct {
	Repository         RepositoryMetadata
	Trainings          []TrainingFile
	Evaluations        []EvaluationFile
	ProcessedTrainings []ProcessedTrainingFile
}

// AllEntries returns every processed entry across all files, preserving the
// per-file order. Calendar projection consumes this flattened view.
func (d ProcessedRepositoryData) AllEntries() []ProcessedTrainingEntry {
	var entries []ProcessedTrainingEntry
	for _, f := range d.ProcessedTrainings {
		entries = append(entries, f.Data...)
	}
	return entries
}
