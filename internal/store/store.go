// Package store persists schedule runs and their per-workload results.
package store

import (
	"context"

	"github.com/me/xbench/pkg/model"
)

// Store defines the persistence layer for run records.
type Store interface {
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context) ([]*model.Run, error)
	UpdateRun(ctx context.Context, run *model.Run) error

	AddResult(ctx context.Context, runID string, res model.LoadResult) error
	ListResults(ctx context.Context, runID string) ([]model.LoadResult, error)

	Close() error
	Migrate(ctx context.Context) error
}
