package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"netaudit/internal/domain"
	"netaudit/internal/repository"
)

// SnapshotReader is the part of a summary store needed to reopen a run
type SnapshotReader interface {
	LatestRunID(ctx context.Context) (string, error)
	GetRun(ctx context.Context, runID string) (*repository.RunInfo, error)
	LoadSummary(ctx context.Context, runID string) (*domain.Summary, error)
}

// Snapshot serves a previously saved run in place of a fresh analysis
type Snapshot struct {
	info    repository.RunInfo
	summary *domain.Summary
}

// LoadSnapshot reads the stored run back from store. A store without a run
// yields an error wrapping domain.ErrNotFound.
func LoadSnapshot(ctx context.Context, store SnapshotReader, logger *zap.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	runID, err := store.LatestRunID(ctx)
	if err != nil {
		return nil, fmt.Errorf("no stored run: %w", err)
	}
	info, err := store.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	summary, err := store.LoadSummary(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	logger.Info("snapshot loaded",
		zap.String("run_id", info.ID),
		zap.Time("generated_at", info.GeneratedAt),
		zap.Int("nodes", info.NodeCount),
		zap.Int("edges", info.EdgeCount),
		zap.Int("issues", info.IssueCount))

	return &Snapshot{info: *info, summary: summary}, nil
}

// Latest returns the stored summary
func (s *Snapshot) Latest() (*domain.Summary, bool) {
	return s.summary, s.summary != nil
}

// Info returns the stored run header
func (s *Snapshot) Info() repository.RunInfo {
	return s.info
}
