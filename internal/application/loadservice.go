package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ericfisherdev/tomeboard/internal/domain/model"
	"github.com/ericfisherdev/tomeboard/internal/domain/port/driven"
)

const (
	metadataPath   = "tome.yaml"
	trainingDir    = "training"
	evaluationsDir = "evaluations"

	// fetchBatchSize bounds concurrent file fetches per category so
	// repositories with many files do not trip GitHub rate limits.
	fetchBatchSize = 3
)

// LoadService orchestrates discovery and fetch of a tome repository:
// metadata, all training files, and all evaluation files. Individual
// failures degrade to partial results; only the aggregate "nothing usable"
// condition escalates to driven.ErrInvalidRepository.
type LoadService struct {
	client driven.ContentClient
}

// NewLoadService creates a LoadService backed by the given content client.
func NewLoadService(client driven.ContentClient) *LoadService {
	return &LoadService{client: client}
}

// Load fetches the full raw contents of a tome repository at the given ref.
//
// The three top-level operations (metadata fetch, training discovery, and
// evaluation discovery) run concurrently and are individually caught.
// When all three come back empty-handed the repository is declared invalid;
// a missing tome.yaml alone only downgrades the student name to "Unknown".
func (s *LoadService) Load(ctx context.Context, repo model.RepositoryRef, ref string) (*model.RepositoryData, error) {
	var (
		wg            sync.WaitGroup
		metadata      model.RepositoryMetadata
		metadataErr   error
		trainingNames []string
		evalNames     []string
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		metadataErr = s.client.FetchYAML(ctx, repo, ref, metadataPath, &metadata)
	}()
	go func() {
		defer wg.Done()
		trainingNames = s.client.ListDirectory(ctx, repo, ref, trainingDir)
	}()
	go func() {
		defer wg.Done()
		evalNames = s.client.ListDirectory(ctx, repo, ref, evaluationsDir)
	}()
	wg.Wait()

	if metadataErr != nil && len(trainingNames) == 0 && len(evalNames) == 0 {
		return nil, fmt.Errorf("loading %s@%s: %w", repo.FullName(), ref, driven.ErrInvalidRepository)
	}

	metadataDefaulted := false
	if metadataErr != nil || metadata.Student.Name == "" {
		if metadataErr != nil {
			slog.Warn("metadata fetch failed, using fallback student",
				"repo", repo.FullName(),
				"error", metadataErr,
			)
		}
		metadata.Student.Name = model.UnknownStudentName
		metadataDefaulted = true
	}

	trainingFiles := fetchTrainingFiles(ctx, s.client, repo, ref, trainingNames)
	evaluationFiles := fetchEvaluationFiles(ctx, s.client, repo, ref, evalNames)

	// The repository may exist yet carry none of the expected structure;
	// that is indistinguishable from a typo'd name and gets the same signal.
	if len(trainingFiles) == 0 && len(evaluationFiles) == 0 && metadataDefaulted {
		return nil, fmt.Errorf("loading %s@%s: no tome content found: %w", repo.FullName(), ref, driven.ErrInvalidRepository)
	}

	slog.Info("repository loaded",
		"repo", repo.FullName(),
		"ref", ref,
		"student", metadata.Student.Name,
		"training_files", len(trainingFiles),
		"evaluation_files", len(evaluationFiles),
	)

	return &model.RepositoryData{
		Repository:      repo,
		Metadata:        metadata,
		TrainingFiles:   trainingFiles,
		EvaluationFiles: evaluationFiles,
	}, nil
}

// fetchTrainingFiles fetches and parses every discovered training file in
// bounded batches, dropping individual failures from the result set.
func fetchTrainingFiles(ctx context.Context, client driven.ContentClient, repo model.RepositoryRef, ref string, names []string) []model.TrainingFile {
	files := make([]*model.TrainingFile, len(names))

	forEachInBatches(ctx, len(names), fetchBatchSize, func(i int) {
		path := trainingDir + "/" + names[i]

		var doc model.TrainingDocument
		if err := client.FetchYAML(ctx, repo, ref, path, &doc); err != nil {
			slog.Warn("dropping training file", "repo", repo.FullName(), "path", path, "error", err)
			return
		}

		files[i] = &model.TrainingFile{
			Filename: names[i],
			Path:     path,
			Data:     doc,
		}
	})

	result := make([]model.TrainingFile, 0, len(names))
	for _, f := range files {
		if f != nil {
			result = append(result, *f)
		}
	}
	return result
}

// fetchEvaluationFiles mirrors fetchTrainingFiles for the evaluations directory.
func fetchEvaluationFiles(ctx context.Context, client driven.ContentClient, repo model.RepositoryRef, ref string, names []string) []model.EvaluationFile {
	files := make([]*model.EvaluationFile, len(names))

	forEachInBatches(ctx, len(names), fetchBatchSize, func(i int) {
		path := evaluationsDir + "/" + names[i]

		var doc model.EvaluationDocument
		if err := client.FetchYAML(ctx, repo, ref, path, &doc); err != nil {
			slog.Warn("dropping evaluation file", "repo", repo.FullName(), "path", path, "error", err)
			return
		}

		files[i] = &model.EvaluationFile{
			Filename: names[i],
			Path:     path,
			Data:     doc,
		}
	})

	result := make([]model.EvaluationFile, 0, len(names))
	for _, f := range files {
		if f != nil {
			result = append(result, *f)
		}
	}
	return result
}

// forEachInBatches runs fn(i) for i in [0, n) in fixed-size concurrent
// batches. Batch N+1 does not start until batch N fully settles, bounding
// simultaneous in-flight work without a full worker pool.
func forEachInBatches(ctx context.Context, n, batchSize int, fn func(i int)) {
	for start := 0; start < n; start += batchSize {
		if ctx.Err() != nil {
			return
		}

		end := start + batchSize
		if end > n {
			end = n
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				fn(i)
			}(i)
		}
		wg.Wait()
	}
}
