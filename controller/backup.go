package controller

import (
	"context"
	"fmt"

	e "precisionpulse/errors"
	"precisionpulse/mirror"
	"precisionpulse/models"
	"precisionpulse/policy"

	"go.uber.org/zap"
)

// Snapshotter exports and restores the list mirror.
type Snapshotter interface {
	Export(ctx context.Context) (*mirror.Snapshot, error)
	Import(ctx context.Context, snap *mirror.Snapshot) (int, error)
}

type BackupService struct {
	snapshots Snapshotter
	policy    *policy.Policy
	logger    *zap.Logger
}

func NewBackupService(snapshots Snapshotter, pol *policy.Policy, logger *zap.Logger) *BackupService {
	return &BackupService{
		snapshots: snapshots,
		policy:    pol,
		logger:    logger.Named("backup_service"),
	}
}

func (s *BackupService) Export(ctx context.Context, user *models.User) (*mirror.Snapshot, error) {
	if !s.policy.Capabilities(user).CanBackup {
		return nil, e.ErrForbidden
	}
	snap, err := s.snapshots.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export backup: %w", err)
	}
	s.logger.Info("backup exported", zap.Int("keys", len(snap.Data)), zap.String("by", user.Email))
	return snap, nil
}

// Import overwrites the keys present in snap. It refuses to run unless the
// caller confirmed the overwrite.
func (s *BackupService) Import(ctx context.Context, user *models.User, snap *mirror.Snapshot, confirm bool) (int, error) {
	if !s.policy.Capabilities(user).CanBackup {
		return 0, e.ErrForbidden
	}
	if !confirm {
		return 0, e.Validation("confirm", "restoring a backup overwrites current data; pass confirm=true")
	}
	if snap == nil {
		return 0, e.Validation("data", "backup is empty")
	}
	n, err := s.snapshots.Import(ctx, snap)
	if err != nil {
		return 0, err
	}
	s.logger.Info("backup restored", zap.Int("keys", n), zap.String("by", user.Email))
	return n, nil
}
