package core

import "fmt"

// DefaultMaxChunk is the chunk size used when configuration leaves it unset.
const DefaultMaxChunk = 50

// PlanChunks splits total into ceil(total/maxChunk) chunk sizes, all equal to
// maxChunk except possibly the last. The sizes always sum to total and a zero
// total yields an empty plan.
func PlanChunks(total, maxChunk int) ([]int, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: total must be >= 0, got %d", ErrInvalidArgument, total)
	}
	if maxChunk < 1 {
		return nil, fmt.Errorf("%w: max chunk must be >= 1, got %d", ErrInvalidArgument, maxChunk)
	}
	if total == 0 {
		return []int{}, nil
	}
	count := (total + maxChunk - 1) / maxChunk
	plan := make([]int, count)
	for i := range plan {
		plan[i] = maxChunk
	}
	plan[count-1] = total - maxChunk*(count-1)
	return plan, nil
}
