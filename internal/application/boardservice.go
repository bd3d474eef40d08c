package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
)

// Board is the complete pipeline output for one repository: joined entry
// lists plus the calendar projection, ready for the presentation layer.
type Board struct {
	Repository  model.RepositoryMetadata
	Data        model.ProcessedRepositoryData
	Cells       []model.DayCell
	ColorDomain [2]float64
	Years       []model.YearGroup

	// Stale marks a board served from the snapshot store after a live fetch
	// failure.
	Stale     bool
	FetchedAt time.Time
}

// BoardService runs the full fetch -> join -> project pipeline and keeps a
// snapshot of each successful result so the board stays available when
// GitHub is unreachable.
type BoardService struct {
	loader    *LoadService
	joiner    *JoinService
	snapshots driven.SnapshotStore // Optional; nil disables the fallback.
	now       func() time.Time
}

// NewBoardService creates a BoardService. snapshots may be nil; a nil clock
// defaults to time.Now.
func NewBoardService(loader *LoadService, joiner *JoinService, snapshots driven.SnapshotStore, now func() time.Time) *BoardService {
	if now == nil {
		now = time.Now
	}
	return &BoardService{
		loader:    loader,
		joiner:    joiner,
		snapshots: snapshots,
		now:       now,
	}
}

// Board loads, joins, and projects the repository at the given ref. On a
// live-fetch failure a stored snapshot is served as a stale fallback when
// one exists; otherwise the load error propagates unchanged so the caller
// can distinguish an invalid repository from a transient failure.
func (s *BoardService) Board(ctx context.Context, repo model.RepositoryRef, ref string) (*Board, error) {
	data, err := s.loader.Load(ctx, repo, ref)
	if err != nil {
		if snap := s.loadSnapshot(ctx, repo.Source); snap != nil {
			slog.Warn("serving stale board from snapshot",
				"repo", repo.FullName(),
				"fetched_at", snap.FetchedAt,
				"error", err,
			)
			return snap, nil
		}
		return nil, err
	}

	board := s.build(ctx, data)
	s.storeSnapshot(ctx, repo.Source, board)

	return board, nil
}

// build runs the join and projection stages over freshly loaded data.
func (s *BoardService) build(ctx context.Context, data *model.RepositoryData) *Board {
	processed := model.ProcessedRepositoryData{
		Repository:  data.Metadata,
		Trainings:   data.TrainingFiles,
		Evaluations: data.EvaluationFiles,
	}

	for _, tf := range data.TrainingFiles {
		processed.ProcessedTrainings = append(processed.ProcessedTrainings, model.ProcessedTrainingFile{
			Filename: tf.Filename,
			Path:     tf.Path,
			Data:     s.joiner.Join(ctx, tf.Data, data.EvaluationFor(tf.Filename)),
		})
	}

	// Projection consumes ascending day order; the joined lists are newest
	// first, which only matters for the same-day collision tie-break and is
	// preserved as-is for compatibility with the collision policy.
	cells := ProjectCalendar(processed.AllEntries(), s.now())

	return &Board{
		Repository:  data.Metadata,
		Data:        processed,
		Cells:       cells,
		ColorDomain: ColorScaleDomain(cells),
		Years:       GroupByYear(cells),
		FetchedAt:   s.now().UTC(),
	}
}

// storeSnapshot persists a successful board. Failures are logged, never fatal.
func (s *BoardService) storeSnapshot(ctx context.Context, source string, board *Board) {
	if s.snapshots == nil {
		return
	}

	payload, err := json.Marshal(board)
	if err != nil {
		slog.Error("marshal board snapshot failed", "repo", source, "error", err)
		return
	}

	snap := driven.BoardSnapshot{
		ID:        uuid.NewString(),
		Source:    source,
		Payload:   payload,
		FetchedAt: board.FetchedAt,
	}
	if err := s.snapshots.Put(ctx, snap); err != nil {
		slog.Error("store board snapshot failed", "repo", source, "error", err)
	}
}

// loadSnapshot returns the latest stored board marked stale, or nil.
func (s *BoardService) loadSnapshot(ctx context.Context, source string) *Board {
	if s.snapshots == nil {
		return nil
	}

	snap, err := s.snapshots.GetLatest(ctx, source)
	if err != nil {
		slog.Error("load board snapshot failed", "repo", source, "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}

	var board Board
	if err := json.Unmarshal(snap.Payload, &board); err != nil {
		slog.Error("unmarshal board snapshot failed", "repo", source, "error", err)
		return nil
	}

	board.Stale = true
	board.FetchedAt = snap.FetchedAt
	return &board
}
