package application

import (
	"math"
	"sort"
	"time"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

const (
	// colorDomainQuantile is the percentile of |value| used as the symmetric
	// color-scale bound, so a single outlier score cannot dominate the scale.
	colorDomainQuantile = 0.9975

	// colorDomainFloor is the minimum half-width of the color domain, used
	// when no cell carries a non-zero value yet.
	colorDomainFloor = 0.05
)

// ProjectCalendar expands a sparse set of dated entries onto a dense
// day-by-day sequence spanning full calendar years. The covered range always
// includes the year of now and extends to the minimum and maximum years
// among entries with a parseable date. One cell is emitted for every day in
// ascending order; days without an entry carry a zero value and no entry.
//
// When two entries share a calendar day, the last one encountered in input
// order wins. Input order is per-file iteration order, so this tie-break is
// defined, not arbitrary.
func ProjectCalendar(entries []model.ProcessedTrainingEntry, now time.Time) []model.DayCell {
	minYear, maxYear := now.UTC().Year(), now.UTC().Year()
	for _, e := range entries {
		if !e.HasDate() {
			continue
		}
		if y := e.Date.Year(); y < minYear {
			minYear = y
		}
		if y := e.Date.Year(); y > maxYear {
			maxYear = y
		}
	}

	// Copy entries so cells can hold stable pointers into the slice.
	owned := make([]model.ProcessedTrainingEntry, len(entries))
	copy(owned, entries)

	byDay := make(map[string]int, len(owned))
	for i := range owned {
		if owned[i].HasDate() {
			byDay[owned[i].Date.Format("2006-01-02")] = i
		}
	}

	first := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(maxYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	cells := make([]model.DayCell, 0, int(last.Sub(first).Hours()/24)+1)
	closePrice := model.CloseSeed
	var prevScore *float64

	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		cell := model.DayCell{Date: day}

		if idx, ok := byDay[day.Format("2006-01-02")]; ok {
			entry := &owned[idx]
			cell.Entry = entry

			if entry.Eval.HasScore() {
				score := *entry.Eval.Score
				cell.Value = ScoreToValue(score)

				if prevScore != nil {
					change := score - *prevScore
					cell.ScoreChange = &change
				}
				// First scored entry keeps a nil ScoreChange ("First entry").
				prev := score
				prevScore = &prev
			}
		}

		closePrice *= 1 + cell.Value
		cell.Close = closePrice
		cells = append(cells, cell)
	}

	return cells
}

// ScoreToValue maps a 1..5 evaluation score onto a fractional daily change
// in [-0.1, +0.1], centered at the neutral score 3.
func ScoreToValue(score float64) float64 {
	return ((score - 3) / 2) * 0.1
}

// ColorScaleDomain computes the symmetric [-max, +max] color-scale domain as
// the 99.75th percentile of |value| across all cells, floored at 0.05 when
// the quantile is zero or undefined (no scored entries yet).
func ColorScaleDomain(cells []model.DayCell) [2]float64 {
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		values = append(values, math.Abs(c.Value))
	}

	q := quantile(values, colorDomainQuantile)
	if math.IsNaN(q) || q == 0 {
		q = colorDomainFloor
	}

	return [2]float64{-q, q}
}

// quantile returns the p-quantile of values using linear interpolation
// between sorted order statistics. Returns NaN for an empty input.
func quantile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}

	frac := h - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// GroupByYear partitions projected cells by calendar year for rendering,
// most recent year first. Within a year each cell gets grid coordinates:
// week-of-year with weeks starting Monday, and weekday remapped so Monday is
// column 0 and Sunday visually appears last at column 6.
func GroupByYear(cells []model.DayCell) []model.YearGroup {
	byYear := make(map[int][]model.PositionedCell)
	for _, c := range cells {
		year := c.Date.Year()
		byYear[year] = append(byYear[year], model.PositionedCell{
			DayCell: c,
			Week:    weekOfYear(c.Date),
			Weekday: mondayWeekday(c.Date.Weekday()),
		})
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	groups := make([]model.YearGroup, 0, len(years))
	for _, y := range years {
		groups = append(groups, model.YearGroup{Year: y, Cells: byYear[y]})
	}

	return groups
}

// mondayWeekday remaps time.Weekday (Sunday=0) to Monday=0..Sunday=6.
func mondayWeekday(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// weekOfYear returns the zero-based week row for a date in a Monday-first
// calendar grid: January 1 sits in week 0, and the week index advances every
// Monday thereafter.
func weekOfYear(date time.Time) int {
	jan1 := time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	return (date.YearDay() - 1 + mondayWeekday(jan1.Weekday())) / 7
}
