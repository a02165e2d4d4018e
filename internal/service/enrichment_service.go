package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/batch"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/generation"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
)

// WordRepository defines the word persistence the enrichment service needs.
// store.WordStore satisfies it.
type WordRepository interface {
	// GetByID retrieves a word by its unique ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// Update saves changes to an existing word
	Update(ctx context.Context, word *domain.Word) error
}

// BatchRunner runs a batch of requests to completion. *batch.Coordinator
// satisfies it.
type BatchRunner interface {
	Run(ctx context.Context, requests []generation.Request, opts batch.Options) (*batch.Result, error)
}

// EnrichOptions configures one EnrichWords call.
type EnrichOptions struct {
	// MaxConcurrency bounds the requests in flight; zero uses the runner default.
	MaxConcurrency int

	// OutputCount is the number of translations or sentences asked per word.
	OutputCount int

	// Level is an optional proficiency level passed to sentence prompts.
	Level string

	// OnProgress receives batch progress; see batch.Options.
	OnProgress func(batch.ProgressEvent)
}

// EnrichmentService fills in translations and example sentences for words.
type EnrichmentService struct {
	runner BatchRunner
	words  WordRepository
	logger *slog.Logger
}

// NewEnrichmentService creates an EnrichmentService.
func NewEnrichmentService(runner BatchRunner, words WordRepository, logger *slog.Logger) (*EnrichmentService, error) {
	if runner == nil {
		return nil, fmt.Errorf("%w: batch runner cannot be nil", ErrInvalidConfig)
	}
	if words == nil {
		return nil, fmt.Errorf("%w: word repository cannot be nil", ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EnrichmentService{
		runner: runner,
		words:  words,
		logger: logger.With("component", "enrichment_service"),
	}, nil
}

// EnrichWords generates content of the given task for every word as one
// batch and saves successful results through the repository. Words whose
// request failed for any reason other than cancellation are marked failed.
// The batch Result is returned unchanged; save failures are logged.
func (s *EnrichmentService) EnrichWords(
	ctx context.Context,
	words []*domain.Word,
	task generation.Task,
	opts EnrichOptions,
) (*batch.Result, error) {
	if task != generation.TaskTranslation && task != generation.TaskSentences {
		return nil, generation.InputInvalid(fmt.Sprintf("unsupported task %q", task))
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	byID := make(map[string]*domain.Word, len(words))
	requests := make([]generation.Request, 0, len(words))
	for _, word := range words {
		if word == nil {
			continue
		}
		id := word.ID.String()
		if _, dup := byID[id]; dup {
			continue
		}
		byID[id] = word

		req := generation.NewRequest(id, word.Text, generation.Params{
			Task:        task,
			SourceLang:  word.SourceLang,
			TargetLang:  word.TargetLang,
			OutputCount: opts.OutputCount,
			Level:       opts.Level,
		})
		req.Context = word.Definition
		requests = append(requests, req)
	}

	log.InfoContext(ctx, "enriching words",
		slog.String("task", string(task)),
		slog.Int("count", len(requests)))

	result, err := s.runner.Run(ctx, requests, batch.Options{
		MaxConcurrency: opts.MaxConcurrency,
		OnProgress:     opts.OnProgress,
		Label:          string(task),
	})
	if err != nil {
		return nil, err
	}

	// Completed work is saved even when the batch was cancelled.
	saveCtx := context.WithoutCancel(ctx)
	for _, item := range result.SuccessfulItems {
		word, ok := byID[item.RequestID]
		if !ok {
			continue
		}
		switch task {
		case generation.TaskTranslation:
			word.SetTranslations(item.Payload.Texts())
		case generation.TaskSentences:
			word.SetSentences(item.Payload.Texts())
		}
		s.save(saveCtx, log, word)
	}

	for _, failure := range result.Failures {
		word, ok := byID[failure.RequestID]
		if !ok || failure.Kind == generation.KindCancelled {
			continue
		}
		if err := word.UpdateStatus(domain.WordStatusFailed); err != nil {
			continue
		}
		s.save(saveCtx, log, word)
	}

	return result, nil
}

// EnrichByIDs loads the words with the given IDs and enriches them as one
// batch. It fails with ErrWordNotFound before any generation if an ID is
// unknown.
func (s *EnrichmentService) EnrichByIDs(
	ctx context.Context,
	ids []uuid.UUID,
	task generation.Task,
	opts EnrichOptions,
) (*batch.Result, error) {
	words := make([]*domain.Word, 0, len(ids))
	for _, id := range ids {
		word, err := s.words.GetByID(ctx, id)
		if err != nil {
			return nil, NewServiceError("enrich_words", fmt.Sprintf("failed to load word %s", id), err)
		}
		words = append(words, word)
	}
	return s.EnrichWords(ctx, words, task, opts)
}

func (s *EnrichmentService) save(ctx context.Context, log *slog.Logger, word *domain.Word) {
	if err := s.words.Update(ctx, word); err != nil {
		log.WarnContext(ctx, "failed to save enriched word",
			slog.String("word_id", word.ID.String()),
			slog.String("error", NewServiceError("save_word", "update failed", err).Error()))
	}
}
