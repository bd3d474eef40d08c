package model

import "time"

// CloseSeed is the starting running value before the first projected day.
const CloseSeed = 100.0

// DayCell is one synthesized day in the projected calendar. Cells exist for
// every calendar day in the covered year range; days without a training
// entry carry a nil Entry and a zero Value.
type DayCell struct {
	// Date is the calendar day at UTC midnight.
	Date time.Time

	// Value is the fractional change derived from the entry's score,
	// ((score-3)/2)*0.1, mapping the 1..5 scale onto [-0.1, +0.1]. Zero for
	// unscored days.
	Value float64

	// Close is the cumulative running value: close[i] = close[i-1]*(1+value[i]),
	// seeded at CloseSeed.
	Close float64

	// ScoreChange is the delta from the previous scored entry. Nil for
	// unscored cells and for the very first scored entry ("First entry").
	ScoreChange *float64

	Entry *ProcessedTrainingEntry
}

// HasEntry reports whether a training entry landed on this day.
func (c DayCell) HasEntry() bool {
	return c.Entry != nil
}

// PositionedCell is a DayCell with its grid coordinates inside a year:
// week-of-year with weeks starting Monday, and weekday remapped so Monday is
// 0 and Sunday appears last at 6.
type PositionedCell struct {
	DayCell
	Week    int
	Weekday int
}

// YearGroup partitions projected cells by calendar year for rendering.
type YearGroup struct {
	Year  int
	Cells []PositionedCell
}
