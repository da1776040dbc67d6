package core

import (
	"time"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateInFlight    State = "in_flight"
	StateAggregating State = "aggregating"
	StateCompleted   State = "completed"
	StateAborted     State = "aborted"
)

// Terminal reports whether no further chunks will be processed.
func (s State) Terminal() bool { return s == StateCompleted || s == StateAborted }

// Session is the record of one provisioning run. It is owned and mutated by
// a single Controller.Run call and must be treated as read-only afterwards.
// Created and Failed are append-only and keep the order of each chunk result.
type Session struct {
	ID              string
	TotalRequested  int
	ChunkPlan       []int
	ChunksCompleted int
	Created         []api.AccountRecord
	Failed          []api.FailureRecord
	StartTime       time.Time
	EndTime         time.Time
	Aborted         bool
	AbortReason     string
	State           State
}

func newSession(id string, total int) *Session {
	return &Session{
		ID:             id,
		TotalRequested: total,
		Created:        []api.AccountRecord{},
		Failed:         []api.FailureRecord{},
		State:          StateIdle,
	}
}

// Elapsed is zero until the run has finished.
func (s *Session) Elapsed() time.Duration {
	if s.EndTime.IsZero() || s.StartTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Accounted is the number of planned creations already covered by
// completed chunks.
func (s *Session) Accounted() int {
	n := 0
	for i := 0; i < s.ChunksCompleted && i < len(s.ChunkPlan); i++ {
		n += s.ChunkPlan[i]
	}
	return n
}

func (s *Session) appendChunk(created []api.AccountRecord, failed []api.FailureRecord) {
	s.Created = append(s.Created, created...)
	s.Failed = append(s.Failed, failed...)
	s.ChunksCompleted++
}

func (s *Session) abort(reason string) {
	s.Aborted = true
	s.AbortReason = reason
	s.State = StateAborted
}
