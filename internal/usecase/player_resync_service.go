package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/smartping-sync/internal/domain/player"
	"github.com/riskibarqy/smartping-sync/internal/platform/logging"
)

const (
	resyncStatusSuccess = "success"
	resyncStatusFailed  = "failed"
	resyncStatusSkipped = "skipped"

	maxPlayerResyncWorkers = 4
)

type PlayerResyncInput struct {
	// Licences narrows the run; empty means every active stored player.
	Licences   []string
	MaxWorkers int
}

type PlayerResyncResult struct {
	TaskCount    int                      `json:"task_count"`
	SuccessCount int                      `json:"success_count"`
	FailedCount  int                      `json:"failed_count"`
	SkippedCount int                      `json:"skipped_count"`
	WorkerCount  int                      `json:"worker_count"`
	Tasks        []PlayerResyncTaskResult `json:"tasks"`
}

type PlayerResyncTaskResult struct {
	Licence    string `json:"licence"`
	Status     string `json:"status"`
	Points     int    `json:"points"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// PlayerResyncService refreshes many stored players through the player
// detail pipeline on a small worker pool.
type PlayerResyncService struct {
	playerRepo     player.Repository
	detail         *PlayerSyncService
	defaultWorkers int
	logger         *logging.Logger
}

func NewPlayerResyncService(playerRepo player.Repository, detail *PlayerSyncService, defaultWorkers int, logger *logging.Logger) *PlayerResyncService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PlayerResyncService{
		playerRepo:     playerRepo,
		detail:         detail,
		defaultWorkers: defaultWorkers,
		logger:         logger.With("component", "player_resync_service"),
	}
}

func (s *PlayerResyncService) Resync(ctx context.Context, input PlayerResyncInput) (PlayerResyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerResyncService.Resync")
	defer span.End()

	if s.detail == nil || s.detail.provider == nil || !s.detail.provider.Available() {
		return PlayerResyncResult{}, fmt.Errorf("%w: player resync needs live federation access", ErrFederationUnavailable)
	}

	licences, err := s.resolveLicences(ctx, input.Licences)
	if err != nil {
		return PlayerResyncResult{}, err
	}

	maxWorkers := input.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = s.defaultWorkers
	}
	workerCount := normalizePlayerResyncWorkers(maxWorkers, len(licences))
	result := PlayerResyncResult{
		TaskCount:   len(licences),
		WorkerCount: workerCount,
		Tasks:       make([]PlayerResyncTaskResult, 0, len(licences)),
	}
	if len(licences) == 0 {
		return result, nil
	}

	results := make(chan PlayerResyncTaskResult, len(licences))

	var successCount atomic.Int32
	var failedCount atomic.Int32
	var skippedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return PlayerResyncResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, licence := range licences {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := s.runTask(ctx, licence)
			row.DurationMs = time.Since(start).Milliseconds()

			switch row.Status {
			case resyncStatusSuccess:
				successCount.Add(1)
			case resyncStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}
			results <- row
		}); err != nil {
			workers.Done()
			return PlayerResyncResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Tasks = append(result.Tasks, row)
	}
	sort.SliceStable(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].Licence < result.Tasks[j].Licence
	})

	result.SuccessCount = int(successCount.Load())
	result.FailedCount = int(failedCount.Load())
	result.SkippedCount = int(skippedCount.Load())

	s.logger.InfoContext(ctx, "player resync finished",
		"tasks", result.TaskCount,
		"success", result.SuccessCount,
		"failed", result.FailedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

func (s *PlayerResyncService) runTask(ctx context.Context, licence string) PlayerResyncTaskResult {
	row := PlayerResyncTaskResult{Licence: licence}
	if err := ctx.Err(); err != nil {
		row.Status = resyncStatusSkipped
		row.Message = err.Error()
		return row
	}

	detail, err := s.detail.GetPlayerDetail(ctx, licence)
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		row.Status = resyncStatusSkipped
		row.Message = err.Error()
	case err != nil:
		row.Status = resyncStatusFailed
		row.Message = err.Error()
	case detail.Source != SourceAPI:
		row.Status = resyncStatusFailed
		row.Message = detail.Error
		row.Points = detail.Player.Points
	default:
		row.Status = resyncStatusSuccess
		row.Points = detail.Player.Points
	}
	return row
}

func (s *PlayerResyncService) resolveLicences(ctx context.Context, requested []string) ([]string, error) {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(requested))
	add := func(licence string) {
		licence = strings.TrimSpace(licence)
		if licence == "" {
			return
		}
		if _, ok := seen[licence]; ok {
			return
		}
		seen[licence] = struct{}{}
		out = append(out, licence)
	}

	if len(requested) > 0 {
		for _, licence := range requested {
			add(licence)
		}
		return out, nil
	}

	players, err := s.playerRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active players: %w", err)
	}
	for _, p := range players {
		add(p.Licence)
	}
	return out, nil
}

func normalizePlayerResyncWorkers(value, taskCount int) int {
	if taskCount <= 0 {
		return 1
	}
	if value <= 0 {
		value = 1
	}
	if value > maxPlayerResyncWorkers {
		value = maxPlayerResyncWorkers
	}
	if value > taskCount {
		value = taskCount
	}
	return value
}
