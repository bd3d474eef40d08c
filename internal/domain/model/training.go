package model

import "gopkg.in/yaml.v3"

// TrainingFile pairs a discovered training YAML file with its parsed document.
type TrainingFile struct {
	Filename string
	Path     string
	Data     TrainingDocument
}

// TrainingDocument is the parsed shape of a training/*.yaml file.
type TrainingDocument struct {
	Meta    TrainingMeta    `yaml:"meta"`
	Content []TrainingEntry `yaml:"content"`
}

// TrainingMeta describes the goal and cadence of a training file.
type TrainingMeta struct {
	Goal   string `yaml:"goal"`
	Format string `yaml:"format"`
}

// TrainingEntry is a single self-reported daily log record. Identity is ID;
// uniqueness within a file is assumed by authors, not enforced here.
type TrainingEntry struct {
	ID            string
	Datetime      string
	DoingToday    string
	DoneYesterday string
	Blockers      string
	Remarks       string
}

// trainingEntryYAML mirrors TrainingEntry for decoding. Authors use either
// "remarks" or "notes" for the free-form field; both are accepted, with
// "remarks" taking priority when both are present.
type trainingEntryYAML struct {
	ID            string `yaml:"id"`
	Datetime      string `yaml:"datetime"`
	DoingToday    string `yaml:"doing_today"`
	DoneYesterday string `yaml:"done_yesterday"`
	Blockers      string `yaml:"blockers"`
	Remarks       string `yaml:"remarks"`
	Notes         string `yaml:"notes"`
}

// UnmarshalYAML decodes a training entry, folding the remarks/notes key
// variants into the single Remarks field.
func (e *TrainingEntry) UnmarshalYAML(node *yaml.Node) error {
	var raw trainingEntryYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	remarks := raw.Remarks
	if remarks == "" {
		remarks = raw.Notes
	}

	*e = TrainingEntry{
		ID:            raw.ID,
		Datetime:      raw.Datetime,
		DoingToday:    raw.DoingToday,
		DoneYesterday: raw.DoneYesterday,
		Blockers:      raw.Blockers,
		Remarks:       remarks,
	}
	return nil
}
