package harvest

import (
	"context"

	"subharvest/pkg/kilonova"
)

// PageFetcher fetches one page of submissions. *kilonova.Client satisfies
// this; tests substitute scripted fakes.
type PageFetcher interface {
	FetchSubmissionPage(ctx context.Context, q kilonova.PageQuery) (*kilonova.SubmissionList, error)
}

// CheckpointStore persists and restores harvest progress
type CheckpointStore interface {
	Save(offset int, dump *kilonova.Dump) error
	LoadOffset() (int, error)
	LoadDump() (*kilonova.Dump, error)
	DataExists() bool
}
