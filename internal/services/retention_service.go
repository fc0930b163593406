package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/osvaldoandrade/scanq/internal/repository"
)

// RetentionService sweeps expired task records in the background so reads
// never pay for cleanup.
type RetentionService interface {
	Start(ctx context.Context)
}

type retentionService struct {
	repo     repository.TaskRepository
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func NewRetentionService(repo repository.TaskRepository, logger *slog.Logger, intervalSeconds int) RetentionService {
	if intervalSeconds <= 0 {
		intervalSeconds = 300
	}
	return &retentionService{
		repo:     repo,
		logger:   logger,
		interval: time.Duration(intervalSeconds) * time.Second,
		batch:    1000,
	}
}

func (s *retentionService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.repo.CleanupExpired(ctx, s.batch, time.Now())
			if err != nil {
				s.logger.Warn("task retention sweep failed", "err", err)
				continue
			}
			if removed > 0 {
				s.logger.Info("task retention sweep removed", "count", removed)
			}
		}
	}
}
