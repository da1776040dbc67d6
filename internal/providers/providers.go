package providers

import (
	"context"
	"errors"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

// ErrCatastrophic marks a chunk that could not be attempted at all. The
// bundled backends wrap it; the controller treats every CreateMany error as
// catastrophic whether or not it is wrapped.
var ErrCatastrophic = errors.New("catastrophic chunk failure")

// ChunkResult partitions one CreateMany call into created and failed records.
// Failed entries are per-item outcomes and never abort a session.
type ChunkResult struct {
	Created []api.AccountRecord `json:"created"`
	Failed  []api.FailureRecord `json:"failed"`
}

// Attempted is the number of creations the backend reports for the chunk.
func (r ChunkResult) Attempted() int { return len(r.Created) + len(r.Failed) }

// Capability creates accounts in bulk. A non-nil error means the chunk could
// not be attempted at all (device pool gone, service unreachable); the
// returned ChunkResult is ignored in that case.
type Capability interface {
	CreateMany(ctx context.Context, count int) (ChunkResult, error)
}

// CapabilityFunc adapts a plain function to Capability.
type CapabilityFunc func(ctx context.Context, count int) (ChunkResult, error)

func (f CapabilityFunc) CreateMany(ctx context.Context, count int) (ChunkResult, error) {
	return f(ctx, count)
}
