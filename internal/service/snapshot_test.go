package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"netaudit/internal/domain"
	"netaudit/internal/repository"
)

type memoryStore struct {
	summary *domain.Summary
}

func (m *memoryStore) LatestRunID(context.Context) (string, error) {
	if m.summary == nil {
		return "", domain.ErrNotFound
	}
	return m.summary.RunID, nil
}

func (m *memoryStore) GetRun(_ context.Context, runID string) (*repository.RunInfo, error) {
	if m.summary == nil || m.summary.RunID != runID {
		return nil, domain.ErrNotFound
	}
	return &repository.RunInfo{
		ID:          runID,
		GeneratedAt: m.summary.GeneratedAt,
		NodeCount:   len(m.summary.Nodes),
		EdgeCount:   len(m.summary.Edges),
		IssueCount:  len(m.summary.Issues),
	}, nil
}

func (m *memoryStore) LoadSummary(_ context.Context, runID string) (*domain.Summary, error) {
	if m.summary == nil || m.summary.RunID != runID {
		return nil, domain.ErrNotFound
	}
	return m.summary, nil
}

func TestLoadSnapshot(t *testing.T) {
	t.Run("stored run", func(t *testing.T) {
		svc := NewAnalysisService(testOptions(), nil, nil, zaptest.NewLogger(t))
		summary, err := svc.Run(context.Background(), ringRecords())
		require.NoError(t, err)

		snap, err := LoadSnapshot(context.Background(), &memoryStore{summary: summary}, zaptest.NewLogger(t))
		require.NoError(t, err)

		got, ok := snap.Latest()
		require.True(t, ok)
		assert.Same(t, summary, got)
		assert.Equal(t, summary.RunID, snap.Info().ID)
		assert.Equal(t, len(summary.Issues), snap.Info().IssueCount)
	})

	t.Run("empty store", func(t *testing.T) {
		_, err := LoadSnapshot(context.Background(), &memoryStore{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("generated time survives", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		store := &memoryStore{summary: &domain.Summary{RunID: "r1", GeneratedAt: at}}
		snap, err := LoadSnapshot(context.Background(), store, nil)
		require.NoError(t, err)
		assert.Equal(t, at, snap.Info().GeneratedAt)
	})
}
