package core

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// ArchiveTimeout bounds one archive upload.
const ArchiveTimeout = 30 * time.Second

// Archiver replicates a persisted session record somewhere off-box.
type Archiver interface {
	Driver() string
	Upload(ctx context.Context, localPath string) (string, error)
}

// Orchestrator is the entrypoint callers use: run a session, validate and
// summarize it, persist the created accounts and hand back a report.
type Orchestrator struct {
	Controller *Controller
	Persister  *Persister
	NamePrefix string

	// Optional.
	Archiver Archiver
	Ledger   *Store
}

// Run returns a nil report only when the request is rejected during
// planning. A persistence failure returns the full report together with an
// error wrapping ErrIOFailure; archive and ledger failures are logged and
// noted in the report without failing the call.
func (o *Orchestrator) Run(ctx context.Context, total, maxChunk int) (*api.SessionReport, error) {
	sess, err := o.Controller.Run(ctx, total, maxChunk)
	if err != nil {
		return nil, err
	}

	rep := &api.SessionReport{
		SessionID:       sess.ID,
		TotalRequested:  sess.TotalRequested,
		ChunkPlan:       sess.ChunkPlan,
		ChunksCompleted: sess.ChunksCompleted,
		Created:         sess.Created,
		Failed:          sess.Failed,
		Uniqueness:      ValidateUniqueness(sess.Created),
		Metrics:         Summarize(sess),
		Aborted:         sess.Aborted,
		AbortReason:     sess.AbortReason,
	}
	if !rep.Uniqueness.Clean() {
		log.Warn().
			Str("session", sess.ID).
			Interface("uniqueness", rep.Uniqueness).
			Msg("duplicate identity fields in created accounts")
	}

	// Bookkeeping still runs when ctx was cancelled mid-session.
	bg := context.WithoutCancel(ctx)

	path, persistErr := o.Persister.Persist(sess.Created, o.NamePrefix)
	if persistErr != nil {
		rep.PersistError = persistErr.Error()
		log.Error().Err(persistErr).Str("session", sess.ID).Msg("could not persist created accounts")
	} else {
		rep.Output = path
		log.Info().Str("session", sess.ID).Str("path", path).Int("accounts", len(sess.Created)).Msg("created accounts persisted")
		if o.Archiver != nil {
			rep.Archive = o.archive(bg, sess.ID, path)
		}
	}

	if o.Ledger != nil {
		if err := o.Ledger.RecordSession(bg, o.Controller.backend, sess, rep); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("could not record session in ledger")
		}
	}

	return rep, persistErr
}

func (o *Orchestrator) archive(ctx context.Context, sessionID, path string) *api.ArchiveResult {
	res := &api.ArchiveResult{Driver: o.Archiver.Driver()}
	ctx, cancel := context.WithTimeout(ctx, ArchiveTimeout)
	defer cancel()
	loc, err := o.Archiver.Upload(ctx, path)
	if err != nil {
		res.Error = err.Error()
		log.Warn().Err(err).Str("session", sessionID).Str("driver", res.Driver).Msg("archive upload failed")
		return res
	}
	res.Location = loc
	log.Info().Str("session", sessionID).Str("driver", res.Driver).Str("location", loc).Msg("session record archived")
	return res
}
