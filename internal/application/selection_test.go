package application_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/tomeboard/internal/application"
	"github.com/ericfisherdev/tomeboard/internal/domain/model"
)

func dayCell(day string, value float64) *model.DayCell {
	date, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return &model.DayCell{Date: date.UTC(), Value: value}
}

func TestSelection_Hover(t *testing.T) {
	cellA := dayCell("2025-06-01", 0.05)
	cellB := dayCell("2025-06-02", -0.05)

	t.Run("hover from none -> hovered", func(t *testing.T) {
		s := application.Selection{}.Hover(cellA)
		assert.Equal(t, application.SelectionHovered, s.State)
		assert.Same(t, cellA, s.Cell)
	})

	t.Run("hover while selected -> unchanged, selection wins", func(t *testing.T) {
		s := application.Selection{}.Click(cellA, nil)
		s = s.Hover(cellB)
		assert.Equal(t, application.SelectionSelected, s.State)
		assert.Same(t, cellA, s.Cell)
	})

	t.Run("leave while hovered -> none", func(t *testing.T) {
		s := application.Selection{}.Hover(cellA).Leave()
		assert.Equal(t, application.SelectionNone, s.State)
	})

	t.Run("leave while selected -> still selected", func(t *testing.T) {
		s := application.Selection{}.Click(cellA, nil).Leave()
		assert.Equal(t, application.SelectionSelected, s.State)
	})
}

func TestSelection_Click(t *testing.T) {
	cellA := dayCell("2025-06-01", 0.05)
	cellB := dayCell("2025-06-02", -0.05)

	t.Run("click from none -> selected", func(t *testing.T) {
		s := application.Selection{}.Click(cellA, nil)
		assert.Equal(t, application.SelectionSelected, s.State)
		assert.Same(t, cellA, s.Cell)
	})

	t.Run("click on already-selected cell -> cleared to none", func(t *testing.T) {
		s := application.Selection{}.Click(cellA, nil).Click(cellA, nil)
		assert.Equal(t, application.SelectionNone, s.State)
		assert.Nil(t, s.Cell)
	})

	t.Run("click on another cell -> selection moves", func(t *testing.T) {
		s := application.Selection{}.Click(cellA, nil).Click(cellB, nil)
		assert.Equal(t, application.SelectionSelected, s.State)
		assert.Same(t, cellB, s.Cell)
	})

	t.Run("click while hovered -> hover replaced by selection", func(t *testing.T) {
		s := application.Selection{}.Hover(cellA).Click(cellB, nil)
		assert.Equal(t, application.SelectionSelected, s.State)
		assert.Same(t, cellB, s.Cell)
	})
}

func TestSelection_TrackingEvents(t *testing.T) {
	cellA := dayCell("2025-06-01", 0.05)

	t.Run("selecting a cell emits date and value", func(t *testing.T) {
		var gotDate time.Time
		var gotValue float64
		calls := 0

		application.Selection{}.Click(cellA, func(date time.Time, value float64) {
			calls++
			gotDate, gotValue = date, value
		})

		require.Equal(t, 1, calls)
		assert.True(t, gotDate.Equal(cellA.Date))
		assert.InDelta(t, 0.05, gotValue, 1e-9)
	})

	t.Run("deselecting does not emit", func(t *testing.T) {
		calls := 0
		track := func(time.Time, float64) { calls++ }

		s := application.Selection{}.Click(cellA, track)
		s.Click(cellA, track)

		assert.Equal(t, 1, calls, "only the initial selection emits")
	})
}

func TestSelection_Reset(t *testing.T) {
	cellA := dayCell("2025-06-01", 0.05)

	s := application.Selection{}.Click(cellA, nil).Reset()
	assert.Equal(t, application.SelectionNone, s.State)
	assert.Nil(t, s.Cell)
}
