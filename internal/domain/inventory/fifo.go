package inventory

import (
	"sort"

	"github.com/boxflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PlannedAllocation is one batch draw decided by the FIFO planner
type PlannedAllocation struct {
	StockID  uuid.UUID
	BatchRef string
	Boxes    int
}

// AllocationPlan is the outcome of walking the candidate batches for one
// requested quantity
type AllocationPlan struct {
	Allocations    []PlannedAllocation
	TotalAllocated int
	Shortfall      int
	FullyFulfilled bool
}

// filterCandidates keeps active batches with available stock
func filterCandidates(batches []StockBatch) []StockBatch {
	candidates := make([]StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.CanAllocate() {
			candidates = append(candidates, b)
		}
	}
	return candidates
}

// sortFIFO orders batches oldest first. Creation timestamps can collide, so
// the storage-assigned sequence breaks ties deterministically.
func sortFIFO(batches []StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		if batches[i].CreatedAt.Equal(batches[j].CreatedAt) {
			return batches[i].Sequence < batches[j].Sequence
		}
		return batches[i].CreatedAt.Before(batches[j].CreatedAt)
	})
}

// PlanFIFO walks the candidate batches oldest first and decides how many
// boxes to draw from each. It is a pure planning step: no counters are
// mutated, and the caller is expected to hold row locks on the candidate set
// when the plan will be applied.
func PlanFIFO(requested int, batches []StockBatch) (*AllocationPlan, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested boxes must be positive")
	}

	candidates := filterCandidates(batches)
	sortFIFO(candidates)

	plan := &AllocationPlan{
		Allocations: make([]PlannedAllocation, 0, len(candidates)),
	}

	remaining := requested
	for _, batch := range candidates {
		if remaining == 0 {
			break
		}
		draw := batch.BoxesAvailable
		if draw > remaining {
			draw = remaining
		}
		if draw == 0 {
			continue
		}
		plan.Allocations = append(plan.Allocations, PlannedAllocation{
			StockID:  batch.ID,
			BatchRef: batch.BatchRef,
			Boxes:    draw,
		})
		plan.TotalAllocated += draw
		remaining -= draw
	}

	plan.Shortfall = remaining
	plan.FullyFulfilled = remaining == 0

	return plan, nil
}

// TotalAvailable sums the available boxes across the allocation candidates.
// The estimate transition uses this snapshot to decide the fulfilled/pending
// split without reserving anything.
func TotalAvailable(batches []StockBatch) int {
	total := 0
	for _, b := range batches {
		if b.CanAllocate() {
			total += b.BoxesAvailable
		}
	}
	return total
}
