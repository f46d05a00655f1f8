package draftctl

import (
	"sort"

	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
)

// WarehouseCandidate is one deduplicated, ranked destination warehouse
// surfaced by a SUCCESS draft_info response.
type WarehouseCandidate struct {
	WarehouseID string
	Name        string
	Address     string
	Available   bool
	TotalRank   *int
	TotalScore  *float64
}

// Normalize flattens the clusters of a SUCCESS draft_info response into a
// list of candidates sorted by (total_rank ASC NULLS LAST, total_score DESC
// NULLS LAST, name ASC), deduplicated by warehouse_id keeping the
// best-ranked entry seen. This is a pure function so it is unit testable
// without a fake marketplace client.
func Normalize(clusters []marketplace.DraftCluster) []WarehouseCandidate {
	best := make(map[string]WarehouseCandidate)
	order := make([]string, 0)

	for _, cluster := range clusters {
		for _, w := range cluster.Warehouses {
			id := w.SupplyWarehouse.WarehouseID
			candidate := WarehouseCandidate{
				WarehouseID: id,
				Name:        w.SupplyWarehouse.Name,
				Address:     w.SupplyWarehouse.Address,
				Available:   w.Status.IsAvailable && w.Status.State == marketplace.WarehouseStateFullAvailable,
				TotalRank:   w.TotalRank,
				TotalScore:  w.TotalScore,
			}
			existing, ok := best[id]
			if !ok {
				best[id] = candidate
				order = append(order, id)
				continue
			}
			if rankLess(candidate, existing) {
				best[id] = candidate
			}
		}
	}

	out := make([]WarehouseCandidate, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return rankLess(out[i], out[j]) })
	return out
}

// rankLess orders a before b by (total_rank asc nulls-last, total_score desc
// nulls-last, name asc).
func rankLess(a, b WarehouseCandidate) bool {
	if a.TotalRank != nil || b.TotalRank != nil {
		switch {
		case a.TotalRank == nil:
			return false
		case b.TotalRank == nil:
			return true
		case *a.TotalRank != *b.TotalRank:
			return *a.TotalRank < *b.TotalRank
		}
	}
	if a.TotalScore != nil || b.TotalScore != nil {
		switch {
		case a.TotalScore == nil:
			return false
		case b.TotalScore == nil:
			return true
		case *a.TotalScore != *b.TotalScore:
			return *a.TotalScore > *b.TotalScore
		}
	}
	return a.Name < b.Name
}
