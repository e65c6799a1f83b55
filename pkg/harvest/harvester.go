package harvest

import (
	"context"
	"fmt"

	"subharvest/pkg/config"
	errs "subharvest/pkg/errors"
	"subharvest/pkg/kilonova"
	"subharvest/pkg/logger"
	"subharvest/pkg/ratelimit"
)

// Outcome describes how a harvest run ended
type Outcome string

const (
	// OutcomeDrained means the remote collection was fully retrieved
	OutcomeDrained Outcome = "drained"
	// OutcomeInterrupted means a shutdown request stopped the loop after a
	// final checkpoint save
	OutcomeInterrupted Outcome = "interrupted"
)

// Result summarizes a completed harvest run
type Result struct {
	Outcome   Outcome
	Offset    int
	Retrieved int // submissions fetched by this run
	Total     int // submissions accumulated across all runs
}

// Harvester drives the paginated harvest: fetch a page, merge it into the
// dump, advance the offset, checkpoint at chunk boundaries. Strictly one
// request in flight at a time; offset accounting depends on it.
type Harvester struct {
	client      PageFetcher
	checkpoints CheckpointStore
	shutdown    *Shutdown
	limiter     ratelimit.Limiter
	cfg         config.HarvestConfig
	logger      logger.Logger
}

// New creates a new harvester
func New(client PageFetcher, checkpoints CheckpointStore, shutdown *Shutdown, limiter ratelimit.Limiter, cfg config.HarvestConfig) *Harvester {
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}
	return &Harvester{
		client:      client,
		checkpoints: checkpoints,
		shutdown:    shutdown,
		limiter:     limiter,
		cfg:         cfg,
		logger:      logger.GetLogger(),
	}
}

// Run executes the harvest loop until the remote source drains, a shutdown
// is requested, or an unrecoverable error occurs. On drain and on shutdown
// the current state is checkpointed before returning; on error it is not,
// so at most one chunk's worth of pages is at risk.
func (h *Harvester) Run(ctx context.Context) (*Result, error) {
	offset, err := h.checkpoints.LoadOffset()
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}

	dump := kilonova.NewDump()
	if offset > 0 {
		if !h.checkpoints.DataExists() {
			return nil, &errs.Error{
				Type:    errs.ErrorTypeCheckpoint,
				Message: fmt.Sprintf("checkpoint marker has offset %d but the data file is missing", offset),
			}
		}
		dump, err = h.checkpoints.LoadDump()
		if err != nil {
			return nil, fmt.Errorf("loading dump: %w", err)
		}

		h.logger.InfoWithFields("resuming harvest", map[string]interface{}{
			"offset":      offset,
			"submissions": dump.Count(),
		})
	}

	// Chunk boundaries are crossing-based on the accumulated submission
	// count, so partial pages near exhaustion cannot skip a save.
	savedChunks := dump.Count() / h.cfg.ChunkSize
	retrieved := 0

	for {
		if h.shutdown.ShouldStop() {
			if err := h.checkpoints.Save(offset, dump); err != nil {
				return nil, fmt.Errorf("final checkpoint save: %w", err)
			}
			h.logger.InfoWithFields("harvest interrupted", map[string]interface{}{
				"offset":    offset,
				"retrieved": retrieved,
			})
			return &Result{Outcome: OutcomeInterrupted, Offset: offset, Retrieved: retrieved, Total: dump.Count()}, nil
		}

		h.limiter.Wait()

		page, err := h.client.FetchSubmissionPage(ctx, kilonova.PageQuery{
			Limit:     h.cfg.PageLimit,
			Offset:    offset,
			ContestID: h.cfg.ContestID,
			ProblemID: h.cfg.ProblemID,
		})
		if err != nil {
			// Retry exhaustion or a malformed response; data since the last
			// checkpoint stays unsaved.
			h.logger.ErrorWithFields("harvest terminated", map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			})
			return nil, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}

		if len(page.Data.Submissions) == 0 {
			// Drained. Save so a partial final chunk is never lost.
			if err := h.checkpoints.Save(offset, dump); err != nil {
				return nil, fmt.Errorf("final checkpoint save: %w", err)
			}
			h.logger.InfoWithFields("harvest drained", map[string]interface{}{
				"offset":    offset,
				"retrieved": retrieved,
				"total":     dump.Count(),
			})
			return &Result{Outcome: OutcomeDrained, Offset: offset, Retrieved: retrieved, Total: dump.Count()}, nil
		}

		dump.Merge(&page.Data)
		retrieved += len(page.Data.Submissions)
		offset += h.cfg.PageLimit

		logger.LogHarvestProgress(dump.Count(), len(page.Data.Submissions), offset)

		if chunks := dump.Count() / h.cfg.ChunkSize; chunks > savedChunks {
			if err := h.checkpoints.Save(offset, dump); err != nil {
				return nil, fmt.Errorf("checkpoint save at offset %d: %w", offset, err)
			}
			savedChunks = chunks
		}
	}
}
