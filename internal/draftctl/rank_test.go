package draftctl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func warehouse(id, name string, available bool, rank *int, score *float64) marketplace.DraftWarehouse {
	state := marketplace.WarehouseState("WAREHOUSE_SCORING_STATUS_PARTIAL_AVAILABLE")
	if available {
		state = marketplace.WarehouseStateFullAvailable
	}
	return marketplace.DraftWarehouse{
		SupplyWarehouse: marketplace.SupplyWarehouse{WarehouseID: id, Name: name},
		Status:          marketplace.WarehouseStatus{State: state, IsAvailable: available},
		TotalRank:       rank,
		TotalScore:      score,
	}
}

func TestNormalizeSortsByRankThenScoreThenName(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("3", "Charlie", true, intPtr(2), floatPtr(1.0)),
			warehouse("1", "Alpha", true, intPtr(1), floatPtr(5.0)),
			warehouse("2", "Bravo", true, intPtr(1), floatPtr(9.0)),
		}},
	}

	got := Normalize(clusters)
	require.Len(t, got, 3)
	require.Equal(t, "2", got[0].WarehouseID, "rank ties break on score desc")
	require.Equal(t, "1", got[1].WarehouseID)
	require.Equal(t, "3", got[2].WarehouseID)
}

func TestNormalizeNilRanksSortLast(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("no-rank", "Zeta", true, nil, floatPtr(100)),
			warehouse("ranked", "Alpha", true, intPtr(5), nil),
		}},
	}

	got := Normalize(clusters)
	require.Equal(t, "ranked", got[0].WarehouseID)
	require.Equal(t, "no-rank", got[1].WarehouseID)
}

func TestNormalizeNilScoresSortLast(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("no-score", "Alpha", true, nil, nil),
			warehouse("scored", "Bravo", true, nil, floatPtr(1)),
		}},
	}

	got := Normalize(clusters)
	require.Equal(t, "scored", got[0].WarehouseID)
	require.Equal(t, "no-score", got[1].WarehouseID)
}

func TestNormalizeBreaksFinalTieOnName(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("z", "Zebra", true, nil, nil),
			warehouse("a", "Alpha", true, nil, nil),
		}},
	}

	got := Normalize(clusters)
	require.Equal(t, "Alpha", got[0].Name)
	require.Equal(t, "Zebra", got[1].Name)
}

func TestNormalizeDedupesByWarehouseIDKeepingBestRank(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("dup", "Worse", true, intPtr(5), nil),
		}},
		{Warehouses: []marketplace.DraftWarehouse{
			warehouse("dup", "Better", true, intPtr(1), nil),
		}},
	}

	got := Normalize(clusters)
	require.Len(t, got, 1)
	require.Equal(t, "Better", got[0].Name)
}

func TestNormalizeAvailableRequiresBothFlags(t *testing.T) {
	t.Parallel()

	clusters := []marketplace.DraftCluster{{Warehouses: []marketplace.DraftWarehouse{
		{
			SupplyWarehouse: marketplace.SupplyWarehouse{WarehouseID: "w1"},
			Status: marketplace.WarehouseStatus{
				State:       marketplace.WarehouseStateFullAvailable,
				IsAvailable: false, // state says full-available but flag says no
			},
		},
	}}}

	got := Normalize(clusters)
	require.Len(t, got, 1)
	require.False(t, got[0].Available)
}
