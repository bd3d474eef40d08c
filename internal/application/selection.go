package application

import (
	"time"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

// SelectionState is the interaction state of the calendar grid.
type SelectionState string

const (
	SelectionNone     SelectionState = "none"
	SelectionHovered  SelectionState = "hovered"
	SelectionSelected SelectionState = "selected"
)

// TrackFunc is the tracking-event callback invoked when a cell is selected,
// carrying the day's date and value. The transport behind it is an external
// analytics collaborator.
type TrackFunc func(date time.Time, value float64)

// Selection models the calendar's hover/selection behavior as an explicit
// state machine with pure transitions, so it is testable without a UI
// harness. The zero value is the "none" state.
type Selection struct {
	State SelectionState
	Cell  *model.DayCell
}

// Hover moves to the hovered state unless a cell is currently selected;
// selection always wins over hover.
func (s Selection) Hover(cell *model.DayCell) Selection {
	if s.State == SelectionSelected {
		return s
	}
	return Selection{State: SelectionHovered, Cell: cell}
}

// Leave clears a hover. A selected cell stays selected.
func (s Selection) Leave() Selection {
	if s.State == SelectionHovered {
		return Selection{State: SelectionNone}
	}
	return s
}

// Click toggles selection of a cell. Clicking the already-selected cell
// clears back to none; selecting a different cell replaces any hover and
// emits a tracking event for the newly selected day. track may be nil.
func (s Selection) Click(cell *model.DayCell, track TrackFunc) Selection {
	if s.State == SelectionSelected && s.Cell != nil && cell != nil && s.Cell.Date.Equal(cell.Date) {
		return Selection{State: SelectionNone}
	}

	if track != nil && cell != nil {
		track(cell.Date, cell.Value)
	}
	return Selection{State: SelectionSelected, Cell: cell}
}

// Reset clears the machine to none. Used for external navigation, such as a
// click on the calendar's background.
func (s Selection) Reset() Selection {
	return Selection{State: SelectionNone}
}
