package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "github.com/ericfisherdev/tomeboard/internal/adapter/driving/http"
	"github.com/ericfisherdev/tomeboard/internal/application"
	"github.com/ericfisherdev/tomeboard/internal/domain/model"
	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
)

// stubBoardProvider returns a canned board or error and records the last
// repo/ref it was asked for.
type stubBoardProvider struct {
	board *application.Board
	err   error

	lastRepo model.RepositoryRef
	lastRef  string
}

func (s *stubBoardProvider) Board(_ context.Context, repo model.RepositoryRef, ref string) (*application.Board, error) {
	s.lastRepo = repo
	s.lastRef = ref
	if s.err != nil {
		return nil, s.err
	}
	return s.board, nil
}

func newTestServer(t *testing.T, provider *stubBoardProvider) *httptest.Server {
	t.Helper()

	handler := httphandler.NewHandler(provider, "main", slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// fixtureBoard builds a small but fully shaped board: one training file with
// two entries, the newer one scored, projected over a handful of days.
func fixtureBoard() *application.Board {
	score := 4.0
	newer := model.ProcessedTrainingEntry{
		TrainingEntry: model.TrainingEntry{
			ID:         "t2",
			Datetime:   "2025-03-11T09:00:00Z",
			DoingToday: "Finish the parser",
		},
		DoingTodayHTML:   "<p>Finish the <strong>parser</strong></p>",
		Date:             time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
		DatetimeReadable: "2025-03-11",
		DatetimeRelative: "3 days ago",
		Eval: model.EvalSummary{
			Score:     &score,
			Notes:     "solid work",
			Evaluator: "Dr. Chen",
			Measurements: []model.Measurement{
				{Dimension: "clarity", Score: 4, Remarks: "solid work"},
			},
		},
	}
	older := model.ProcessedTrainingEntry{
		TrainingEntry: model.TrainingEntry{
			ID:         "t1",
			Datetime:   "2025-03-10T09:00:00Z",
			DoingToday: "Start the parser",
		},
		DoingTodayHTML:   "<p>Start the parser</p>",
		Date:             time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		DatetimeReadable: "2025-03-10",
		DatetimeRelative: "4 days ago",
	}

	processed := model.ProcessedRepositoryData{
		Repository: model.RepositoryMetadata{Student: model.Student{Name: "Alice"}},
		Trainings: []model.TrainingFile{
			{
				Filename: "week1.yaml",
				Path:     "training/week1.yaml",
				Data: model.TrainingDocument{
					Meta: model.TrainingMeta{Goal: "Ship the parser", Format: "daily"},
				},
			},
		},
		ProcessedTrainings: []model.ProcessedTrainingFile{
			{
				Filename: "week1.yaml",
				Path:     "training/week1.yaml",
				Data:     []model.ProcessedTrainingEntry{newer, older},
			},
		},
	}

	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	cells := application.ProjectCalendar(processed.AllEntries(), now)

	return &application.Board{
		Repository:  processed.Repository,
		Data:        processed,
		Cells:       cells,
		ColorDomain: application.ColorScaleDomain(cells),
		Years:       application.GroupByYear(cells),
		FetchedAt:   now,
	}
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestGetBoard(t *testing.T) {
	provider := &stubBoardProvider{board: fixtureBoard()}
	server := newTestServer(t, provider)

	resp, err := http.Get(server.URL + "/api/v1/board?repo=github.com/alice/growth-journal")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var board httphandler.BoardResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))

	assert.Equal(t, "Alice", board.Student)
	assert.False(t, board.Stale)
	assert.Equal(t, "2025-03-14T12:00:00Z", board.FetchedAt)

	require.Len(t, board.Trainings, 1)
	tf := board.Trainings[0]
	assert.Equal(t, "week1.yaml", tf.Filename)
	assert.Equal(t, "Ship the parser", tf.Goal)
	require.Len(t, tf.Entries, 2)

	scored := tf.Entries[0]
	assert.Equal(t, "t2", scored.ID)
	assert.Equal(t, "Finish the parser", scored.Summary)
	require.NotNil(t, scored.Eval)
	require.NotNil(t, scored.Eval.Score)
	assert.Equal(t, 4.0, *scored.Eval.Score)
	assert.Equal(t, "Dr. Chen", scored.Eval.Evaluator)

	assert.Nil(t, tf.Entries[1].Eval, "unscored entry carries no eval object")

	assert.NotEmpty(t, board.Calendar.Cells)
	assert.Equal(t, -board.Calendar.ColorDomain[1], board.Calendar.ColorDomain[0])
	require.NotEmpty(t, board.Calendar.Years)
	assert.Equal(t, 2025, board.Calendar.Years[0].Year)

	assert.Equal(t, "alice/growth-journal", provider.lastRepo.FullName())
	assert.Equal(t, "main", provider.lastRef, "configured default ref is used")
}

func TestGetBoard_RefOverride(t *testing.T) {
	provider := &stubBoardProvider{board: fixtureBoard()}
	server := newTestServer(t, provider)

	resp, err := http.Get(server.URL + "/api/v1/board?repo=github.com/alice/growth-journal&ref=develop")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "develop", provider.lastRef)
}

func TestGetBoard_Errors(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "missing repo parameter",
			query:      "",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "missing required query parameter: repo",
		},
		{
			name:       "malformed repo parameter",
			query:      "?repo=gitlab.com/alice/journal",
			wantStatus: http.StatusBadRequest,
			wantMsg:    "invalid repository source",
		},
		{
			name:       "invalid repository",
			query:      "?repo=github.com/alice/empty",
			err:        fmt.Errorf("loading alice/empty@main: %w", driven.ErrInvalidRepository),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "verify that it exists",
		},
		{
			name:       "upstream failure",
			query:      "?repo=github.com/alice/growth-journal",
			err:        errors.New("github unreachable"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, &stubBoardProvider{err: tt.err})

			resp, err := http.Get(server.URL + "/api/v1/board" + tt.query)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Contains(t, decodeError(t, resp), tt.wantMsg)
		})
	}
}

func TestGetEntries(t *testing.T) {
	provider := &stubBoardProvider{board: fixtureBoard()}
	server := newTestServer(t, provider)

	t.Run("default limit returns all entries newest first", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/entries?repo=github.com/alice/growth-journal")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var entries []httphandler.EntryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))

		require.Len(t, entries, 2)
		assert.Equal(t, "t2", entries[0].ID)
		assert.Equal(t, "t1", entries[1].ID)
	})

	t.Run("limit truncates", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/entries?repo=github.com/alice/growth-journal&limit=1")
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var entries []httphandler.EntryResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))

		require.Len(t, entries, 1)
		assert.Equal(t, "t2", entries[0].ID)
	})

	t.Run("invalid limit -> 400", func(t *testing.T) {
		for _, limit := range []string{"0", "-1", "abc"} {
			resp, err := http.Get(server.URL + "/api/v1/entries?repo=github.com/alice/growth-journal&limit=" + limit)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			_ = resp.Body.Close()
		}
	})
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, &stubBoardProvider{})

	resp, err := http.Get(server.URL + "/api/v1/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health httphandler.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))

	assert.Equal(t, "ok", health.Status)
	_, err = time.Parse(time.RFC3339, health.Time)
	assert.NoError(t, err)
}
