package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/tomeboard/internal/application"
	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// BoardResponse is the JSON representation of a fully processed board.
type BoardResponse struct {
	Student   string                 `json:"student"`
	Trainings []TrainingFileResponse `json:"trainings"`
	Calendar  CalendarResponse       `json:"calendar"`
	Stale     bool                   `json:"stale"`
	FetchedAt string                 `json:"fetched_at"`
}

// CalendarResponse carries the dense day grid, its color-scale domain, and
// the per-year grouping used to lay out the grid.
type CalendarResponse struct {
	Cells       []DayCellResponse   `json:"cells"`
	ColorDomain [2]float64          `json:"color_domain"`
	Years       []YearGroupResponse `json:"years"`
}

// DayCellResponse is one synthesized calendar day.
type DayCellResponse struct {
	Date        string         `json:"date"`
	Value       float64        `json:"value"`
	Close       float64        `json:"close"`
	ScoreChange *float64       `json:"score_change,omitempty"`
	Entry       *EntryResponse `json:"entry,omitempty"`
}

// YearGroupResponse is one calendar year of positioned cells, most recent
// year first in the enclosing list.
type YearGroupResponse struct {
	Year  int                      `json:"year"`
	Cells []PositionedCellResponse `json:"cells"`
}

// PositionedCellResponse is a day cell with its Monday-first grid coordinates.
type PositionedCellResponse struct {
	Date     string  `json:"date"`
	Week     int     `json:"week"`
	Weekday  int     `json:"weekday"`
	Value    float64 `json:"value"`
	HasEntry bool    `json:"has_entry"`
}

// TrainingFileResponse is a joined training file, entries newest first.
type TrainingFileResponse struct {
	Filename string          `json:"filename"`
	Path     string          `json:"path"`
	Goal     string          `json:"goal"`
	Format   string          `json:"format"`
	Entries  []EntryResponse `json:"entries"`
}

// EntryResponse is the JSON representation of a joined training entry.
type EntryResponse struct {
	ID                string        `json:"id"`
	Datetime          string        `json:"datetime"`
	DatetimeReadable  string        `json:"datetime_readable"`
	DatetimeRelative  string        `json:"datetime_relative"`
	DoingTodayHTML    string        `json:"doing_today_html,omitempty"`
	DoneYesterdayHTML string        `json:"done_yesterday_html,omitempty"`
	BlockersHTML      string        `json:"blockers_html,omitempty"`
	Remarks           string        `json:"remarks,omitempty"`
	Summary           string        `json:"summary,omitempty"`
	Eval              *EvalResponse `json:"eval,omitempty"`
}

// EvalResponse is the evaluation side of a joined entry. Score is omitted
// for "no score" entries but the object itself is present whenever an
// evaluator matched.
type EvalResponse struct {
	Score        *float64              `json:"score,omitempty"`
	Notes        string                `json:"notes,omitempty"`
	Evaluator    string                `json:"evaluator,omitempty"`
	Measurements []MeasurementResponse `json:"measurements,omitempty"`
}

// MeasurementResponse is a single scored dimension.
type MeasurementResponse struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Remarks   string  `json:"remarks,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toBoardResponse converts a pipeline Board to its JSON response representation.
func toBoardResponse(board *application.Board) BoardResponse {
	trainings := make([]TrainingFileResponse, 0, len(board.Data.ProcessedTrainings))
	for i, pf := range board.Data.ProcessedTrainings {
		entries := make([]EntryResponse, 0, len(pf.Data))
		for _, e := range pf.Data {
			entries = append(entries, toEntryResponse(e))
		}

		var meta model.TrainingMeta
		if i < len(board.Data.Trainings) {
			meta = board.Data.Trainings[i].Data.Meta
		}

		trainings = append(trainings, TrainingFileResponse{
			Filename: pf.Filename,
			Path:     pf.Path,
			Goal:     meta.Goal,
			Format:   meta.Format,
			Entries:  entries,
		})
	}

	cells := make([]DayCellResponse, 0, len(board.Cells))
	for _, c := range board.Cells {
		cells = append(cells, toDayCellResponse(c))
	}

	years := make([]YearGroupResponse, 0, len(board.Years))
	for _, yg := range board.Years {
		positioned := make([]PositionedCellResponse, 0, len(yg.Cells))
		for _, pc := range yg.Cells {
			positioned = append(positioned, PositionedCellResponse{
				Date:     pc.Date.Format("2006-01-02"),
				Week:     pc.Week,
				Weekday:  pc.Weekday,
				Value:    pc.Value,
				HasEntry: pc.HasEntry(),
			})
		}
		years = append(years, YearGroupResponse{Year: yg.Year, Cells: positioned})
	}

	return BoardResponse{
		Student:   board.Repository.Student.Name,
		Trainings: trainings,
		Calendar: CalendarResponse{
			Cells:       cells,
			ColorDomain: board.ColorDomain,
			Years:       years,
		},
		Stale:     board.Stale,
		FetchedAt: board.FetchedAt.UTC().Format(time.RFC3339),
	}
}

// toDayCellResponse converts a domain DayCell to its JSON representation.
func toDayCellResponse(c model.DayCell) DayCellResponse {
	resp := DayCellResponse{
		Date:        c.Date.Format("2006-01-02"),
		Value:       c.Value,
		Close:       c.Close,
		ScoreChange: c.ScoreChange,
	}
	if c.Entry != nil {
		entry := toEntryResponse(*c.Entry)
		resp.Entry = &entry
	}
	return resp
}

// toEntryResponse converts a processed training entry to its JSON representation.
func toEntryResponse(e model.ProcessedTrainingEntry) EntryResponse {
	resp := EntryResponse{
		ID:                e.ID,
		Datetime:          e.Datetime,
		DatetimeReadable:  e.DatetimeReadable,
		DatetimeRelative:  e.DatetimeRelative,
		DoingTodayHTML:    e.DoingTodayHTML,
		DoneYesterdayHTML: e.DoneYesterdayHTML,
		BlockersHTML:      e.BlockersHTML,
		Remarks:           e.Remarks,
		Summary:           application.StripTags(e.DoingTodayHTML),
	}

	if e.Eval.HasScore() || e.Eval.Evaluator != "" {
		measurements := make([]MeasurementResponse, 0, len(e.Eval.Measurements))
		for _, m := range e.Eval.Measurements {
			measurements = append(measurements, MeasurementResponse{
				Dimension: m.Dimension,
				Score:     m.Score,
				Remarks:   m.Remarks,
			})
		}
		resp.Eval = &EvalResponse{
			Score:        e.Eval.Score,
			Notes:        e.Eval.Notes,
			Evaluator:    e.Eval.Evaluator,
			Measurements: measurements,
		}
	}

	return resp
}
