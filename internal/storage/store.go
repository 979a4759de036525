package storage

import (
	"context"

	"aicars/internal/model"
)

// Store persists the single best-brain slot and the history of training runs.
type Store interface {
	Init(ctx context.Context) error
	SaveBestBrain(ctx context.Context, brain model.Brain) error
	GetBestBrain(ctx context.Context) (model.Brain, bool, error)
	DeleteBestBrain(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
}
