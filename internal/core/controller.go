package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	prov "github.com/oranolio956/qa-automation-framework-sub006/internal/providers"
	"github.com/oranolio956/qa-automation-framework-sub006/internal/telemetry"
)

// Controller drives one provisioning session at a time: plan, call the
// capability once per chunk in order, aggregate. It never retries.
type Controller struct {
	capability prov.Capability
	backend    string
	// ChunkTimeout bounds each CreateMany call when positive. A chunk that
	// runs past it aborts the session like any other catastrophic failure.
	ChunkTimeout time.Duration

	now   func() time.Time
	newID func() string
}

func NewController(c prov.Capability, backend string) *Controller {
	return &Controller{
		capability: c,
		backend:    backend,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Run provisions total accounts in chunks of at most maxChunk. The only
// error it returns is ErrInvalidArgument from planning; a catastrophic chunk
// failure is reported through Session.Aborted with the partial data kept.
func (c *Controller) Run(ctx context.Context, total, maxChunk int) (*Session, error) {
	s := newSession(c.newID(), total)

	s.State = StatePlanning
	plan, err := PlanChunks(total, maxChunk)
	if err != nil {
		return nil, fmt.Errorf("plan chunks: %w", err)
	}
	s.ChunkPlan = plan
	s.StartTime = c.now()

	logger := log.With().Str("session", s.ID).Str("backend", c.backend).Logger()
	logger.Info().
		Int("total", total).
		Int("max_chunk", maxChunk).
		Int("chunks", len(plan)).
		Msg("provisioning session started")

	for i, size := range plan {
		s.State = StateInFlight
		started := c.now()
		res, err := c.createChunk(ctx, size)
		took := c.now().Sub(started)

		if err != nil {
			telemetry.RecordChunk(c.backend, 0, 0, took, true)
			s.abort(fmt.Sprintf("chunk %d/%d (size %d): %v", i+1, len(plan), size, err))
			logger.Error().
				Err(err).
				Int("chunk", i+1).
				Int("size", size).
				Int("created_so_far", len(s.Created)).
				Msg("chunk could not be attempted, aborting session")
			break
		}

		s.State = StateAggregating
		if res.Attempted() != size {
			logger.Warn().
				Int("chunk", i+1).
				Int("requested", size).
				Int("returned", res.Attempted()).
				Msg("backend returned a different number of records than requested")
		}
		s.appendChunk(res.Created, res.Failed)
		telemetry.RecordChunk(c.backend, len(res.Created), len(res.Failed), took, false)
		logger.Info().
			Int("chunk", i+1).
			Int("size", size).
			Int("created", len(res.Created)).
			Int("failed", len(res.Failed)).
			Dur("took", took).
			Msg("chunk aggregated")
	}

	s.EndTime = c.now()
	if !s.State.Terminal() {
		s.State = StateCompleted
	}
	telemetry.RecordSession(string(s.State))
	logger.Info().
		Str("state", string(s.State)).
		Int("created", len(s.Created)).
		Int("failed", len(s.Failed)).
		Int("chunks_completed", s.ChunksCompleted).
		Dur("elapsed", s.Elapsed()).
		Msg("provisioning session finished")
	return s, nil
}

func (c *Controller) createChunk(ctx context.Context, size int) (prov.ChunkResult, error) {
	if c.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.ChunkTimeout)
		defer cancel()
	}
	return c.capability.CreateMany(ctx, size)
}
