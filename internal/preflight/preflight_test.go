package preflight

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amalgammas/ozon-slotbot/internal/config"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/marketplacetest"
	"github.com/amalgammas/ozon-slotbot/internal/task"
)

func TestCheckNeverBlocksOnMarketplaceFailure(t *testing.T) {
	t.Parallel()

	client := &marketplacetest.Client{
		ListClustersFunc: func(context.Context, marketplace.Credentials, []string, string) (marketplace.ListClustersResponse, error) {
			return marketplace.ListClustersResponse{}, errors.New("upstream down")
		},
	}
	tk := task.Task{TaskID: "t1", ClusterID: "cluster-1"}

	require.NotPanics(t, func() {
		Check(context.Background(), client, marketplace.Credentials{}, config.ClustersConfig{}, tk)
	})
}

func TestCheckDirectSupplySkipsDropOffLookup(t *testing.T) {
	t.Parallel()

	client := &marketplacetest.Client{
		ListClustersFunc: func(context.Context, marketplace.Credentials, []string, string) (marketplace.ListClustersResponse, error) {
			return marketplace.ListClustersResponse{Clusters: []marketplace.Cluster{{ID: "cluster-1"}}}, nil
		},
	}
	tk := task.Task{TaskID: "t1", ClusterID: "cluster-1", SupplyType: task.SupplyTypeDirect}

	Check(context.Background(), client, marketplace.Credentials{}, config.ClustersConfig{}, tk)
	require.Equal(t, 0, client.Calls("SearchDropOffs"))
}

func TestCheckCrossdockLooksUpDropOffWarehouse(t *testing.T) {
	t.Parallel()

	client := &marketplacetest.Client{
		ListClustersFunc: func(context.Context, marketplace.Credentials, []string, string) (marketplace.ListClustersResponse, error) {
			return marketplace.ListClustersResponse{Clusters: []marketplace.Cluster{{ID: "cluster-1"}}}, nil
		},
		SearchDropOffsFunc: func(context.Context, marketplace.Credentials, string, string) (marketplace.SearchDropOffsResponse, error) {
			return marketplace.SearchDropOffsResponse{Search: []marketplace.DropOffWarehouse{{WarehouseID: "do-1"}}}, nil
		},
	}
	tk := task.Task{
		TaskID: "t1", ClusterID: "cluster-1", SupplyType: task.SupplyTypeCrossdock, DropOffWarehouseID: "do-1",
	}

	Check(context.Background(), client, marketplace.Credentials{}, config.ClustersConfig{}, tk)
	require.Equal(t, 1, client.Calls("SearchDropOffs"))
}

func TestCheckEmptyAllowlistNeverWarnsLocally(t *testing.T) {
	t.Parallel()

	client := &marketplacetest.Client{
		ListClustersFunc: func(context.Context, marketplace.Credentials, []string, string) (marketplace.ListClustersResponse, error) {
			return marketplace.ListClustersResponse{}, nil
		},
	}
	tk := task.Task{TaskID: "t1", ClusterID: "anything"}

	require.NotPanics(t, func() {
		Check(context.Background(), client, marketplace.Credentials{}, config.ClustersConfig{}, tk)
	})
}
