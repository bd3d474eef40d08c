// Package application contains use-case orchestration services.
package application

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

// joinBatchSize bounds how many entries are processed concurrently per
// batch. A batch fully settles before the next one starts.
const joinBatchSize = 5

// datetimeLayouts are the accepted entry datetime formats, most specific first.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// JoinService cross-references training entries against evaluation records
// by shared ID, renders free-text fields to sanitized HTML, and enriches
// entries with readable and relative timestamps.
type JoinService struct {
	now func() time.Time
}

// NewJoinService creates a JoinService. A nil clock defaults to time.Now.
func NewJoinService(now func() time.Time) *JoinService {
	if now == nil {
		now = time.Now
	}
	return &JoinService{now: now}
}

// Join processes every entry of a training document against the matching
// evaluation document (nil when the training file has no evaluation
// counterpart). Output is sorted by datetime descending, newest first, the
// canonical order for "latest N entries" displays. Per-entry failures
// (unmatched evaluation, zero measurements, render fallback) never abort the
// batch; the entry proceeds without a score.
func (s *JoinService) Join(ctx context.Context, training model.TrainingDocument, evaluation *model.EvaluationDocument) []model.ProcessedTrainingEntry {
	processed := make([]model.ProcessedTrainingEntry, len(training.Content))

	for start := 0; start < len(training.Content); start += joinBatchSize {
		if ctx.Err() != nil {
			break
		}

		end := start + joinBatchSize
		if end > len(training.Content) {
			end = len(training.Content)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				processed[i] = s.processEntry(training.Content[i], evaluation)
			}(i)
		}
		wg.Wait()
	}

	sort.SliceStable(processed, func(i, j int) bool {
		a, b := processed[i], processed[j]
		if a.HasDate() && b.HasDate() {
			return a.Date.After(b.Date)
		}
		return a.Datetime > b.Datetime
	})

	return processed
}

// processEntry enriches a single training entry with rendered HTML,
// timestamps, and its evaluation summary.
func (s *JoinService) processEntry(entry model.TrainingEntry, evaluation *model.EvaluationDocument) model.ProcessedTrainingEntry {
	p := model.ProcessedTrainingEntry{
		TrainingEntry:     entry,
		DoingTodayHTML:    RenderMarkdown(entry.DoingToday),
		DoneYesterdayHTML: RenderMarkdown(entry.DoneYesterday),
		BlockersHTML:      RenderMarkdown(entry.Blockers),
	}

	if date, ok := parseEntryDatetime(entry.Datetime); ok {
		p.Date = date
		p.DatetimeReadable = date.Format("2006-01-02")
		p.DatetimeRelative = humanize.RelTime(date, s.now(), "ago", "from now")
	} else if len(entry.Datetime) >= 10 {
		p.DatetimeReadable = entry.Datetime[:10]
	} else {
		p.DatetimeReadable = entry.Datetime
	}

	p.Eval = summarizeEvaluation(entry.ID, evaluation)

	return p
}

// summarizeEvaluation looks up the evaluation entry sharing the training
// entry's ID and averages its measurement scores. A missing match or a match
// with zero measurements yields a nil score; the entry is still included in
// output, just treated as "no score".
func summarizeEvaluation(id string, evaluation *model.EvaluationDocument) model.EvalSummary {
	if evaluation == nil {
		return model.EvalSummary{}
	}

	var match *model.EvaluationEntry
	for i := range evaluation.Evaluations {
		// First match wins when authors accidentally duplicate IDs.
		if evaluation.Evaluations[i].ID == id {
			match = &evaluation.Evaluations[i]
			break
		}
	}

	if match == nil {
		slog.Debug("no evaluation for training entry", "id", id)
		return model.EvalSummary{}
	}
	if !match.HasMeasurements() {
		slog.Debug("evaluation has zero measurements", "id", id)
		return model.EvalSummary{}
	}

	var sum float64
	notes := make([]string, 0, len(match.Measurements))
	for _, m := range match.Measurements {
		sum += m.Score
		if m.Remarks != "" {
			notes = append(notes, m.Remarks)
		}
	}

	score := roundScore(sum / float64(len(match.Measurements)))

	return model.EvalSummary{
		Score:        &score,
		Notes:        strings.Join(notes, "\n"),
		Evaluator:    evaluation.Meta.Evaluator.DisplayName(),
		Measurements: match.Measurements,
	}
}

// roundScore rounds to two decimal places.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}

// parseEntryDatetime parses an ISO-ish entry datetime, returning the moment
// in UTC. Entry authors are inconsistent about precision, so several layouts
// are tried in order.
func parseEntryDatetime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
