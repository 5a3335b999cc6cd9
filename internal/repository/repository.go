package repository

import (
	"context"
	"time"

	"netaudit/internal/domain"
)

// RunInfo is the header row of a stored analysis run
type RunInfo struct {
	ID          string
	GeneratedAt time.Time
	Notes       string
	NodeCount   int
	EdgeCount   int
	IssueCount  int
}

// SummaryStore persists analysis summaries for offline querying
type SummaryStore interface {
	// SaveSummary replaces the stored snapshot with summary
	SaveSummary(ctx context.Context, summary *domain.Summary) error

	// LoadSummary reassembles a stored run
	LoadSummary(ctx context.Context, runID string) (*domain.Summary, error)

	// LatestRunID returns the id of the stored run, or domain.ErrNotFound
	LatestRunID(ctx context.Context) (string, error)
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	ListNodes(ctx context.Context, runID string) ([]*domain.Node, error)
	ListEdges(ctx context.Context, runID string) ([]*domain.Edge, error)
	// ListIssues returns issues in detection order; an empty issueType matches all
	ListIssues(ctx context.Context, runID string, issueType domain.IssueType) ([]domain.Issue, error)
	EdgeLoads(ctx context.Context, runID string) (domain.EdgeLoad, error)
	LoadBalance(ctx context.Context, runID string) ([]domain.LoadRecommendation, error)
	Recommendations(ctx context.Context, runID string) ([]string, error)
	DemandTrials(ctx context.Context, runID string) ([]domain.DemandTrial, error)
	// SimLog returns the ordered discovery events received by router
	SimLog(ctx context.Context, runID, router string) ([]domain.SimEvent, error)
	// FullSimLog returns every router's discovery events
	FullSimLog(ctx context.Context, runID string) (domain.SimLog, error)

	Close() error
}
