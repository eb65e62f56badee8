package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/equipment-tracker/internal/dto"
	"github.com/noah-isme/equipment-tracker/pkg/jobs"
)

// Background job types.
const (
	JobPruneExports = "exports.prune"
	JobCreateBackup = "backup.create"
)

type exportPruner interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type backupCreator interface {
	Create(ctx context.Context) (*dto.BackupInfo, error)
}

// HousekeepingService handles the background jobs of the tracker: deleting
// rendered exports past their retention and taking periodic backups. Jobs only
// touch files in the exports and backup directories and never read or write
// store rows; every equipment, maintenance and assignment operation stays
// synchronous on its request.
type HousekeepingService struct {
	exports   exportPruner
	backups   backupCreator
	retention time.Duration
	logger    *zap.Logger
}

// NewHousekeepingService constructs HousekeepingService. A non-positive
// retention keeps exports forever.
func NewHousekeepingService(exports exportPruner, backups backupCreator, retention time.Duration, logger *zap.Logger) *HousekeepingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HousekeepingService{exports: exports, backups: backups, retention: retention, logger: logger}
}

// Handle is the jobs.Handler of the housekeeping queue.
func (s *HousekeepingService) Handle(ctx context.Context, job jobs.Job) error {
	switch job.Type {
	case JobPruneExports:
		return s.pruneExports()
	case JobCreateBackup:
		info, err := s.backups.Create(ctx)
		if err != nil {
			return err
		}
		s.logger.Info("scheduled backup created", zap.String("job_id", job.ID), zap.String("file", info.Filename))
		return nil
	default:
		s.logger.Warn("unknown job type", zap.String("type", job.Type))
		return nil
	}
}

func (s *HousekeepingService) pruneExports() error {
	if s.retention <= 0 || s.exports == nil {
		return nil
	}
	deleted, err := s.exports.CleanupOlderThan(s.retention)
	if err != nil {
		return fmt.Errorf("prune exports: %w", err)
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return nil
}
