// Package preflight runs the cheap, non-authoritative sanity checks the
// chat layer would normally perform while building a Task (verifying the
// chosen cluster and drop-off warehouse actually exist) before it is handed
// to the Supply Orchestrator. It is not part of the state machine: every
// check here is advisory, logged, and never blocks Orchestrator.Run on its own
// (the marketplace itself remains authoritative during draft creation).
package preflight

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/amalgammas/ozon-slotbot/internal/config"
	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/task"
)

// Check validates t.ClusterID (and, for crossdock, t.DropOffWarehouseID)
// against the operator-curated allowlist and, best-effort, against the
// marketplace's own POST /cluster/list and POST /warehouse/fbo/list. A
// marketplace lookup failure is logged and ignored; preflight never turns
// a transient upstream hiccup into a task-launch failure.
func Check(ctx context.Context, client marketplace.Client, creds marketplace.Credentials, clusters config.ClustersConfig, t task.Task) {
	if !clusters.HasCluster(t.ClusterID) {
		log.Warn().Str("task_id", t.TaskID).Str("cluster_id", t.ClusterID).
			Msg("preflight: cluster_id not present in operator-curated allowlist")
	}
	if t.SupplyType == task.SupplyTypeCrossdock && !clusters.HasWarehouse(t.ClusterID, t.DropOffWarehouseID) {
		log.Warn().Str("task_id", t.TaskID).Str("warehouse_id", t.DropOffWarehouseID).
			Msg("preflight: drop_off_warehouse_id not present in operator-curated allowlist")
	}

	resp, err := client.ListClusters(ctx, creds, []string{t.ClusterID}, "")
	if err != nil {
		log.Warn().Err(err).Str("task_id", t.TaskID).Msg("preflight: list_clusters lookup failed, skipping")
		return
	}
	found := false
	for _, cl := range resp.Clusters {
		if cl.ID == t.ClusterID {
			found = true
			break
		}
	}
	if !found {
		log.Warn().Str("task_id", t.TaskID).Str("cluster_id", t.ClusterID).
			Msg("preflight: cluster_id not returned by marketplace list_clusters")
	}

	if t.SupplyType != task.SupplyTypeCrossdock || t.DropOffWarehouseID == "" {
		return
	}
	dropOffs, err := client.SearchDropOffs(ctx, creds, string(t.SupplyType), t.DropOffWarehouseID)
	if err != nil {
		log.Warn().Err(err).Str("task_id", t.TaskID).Msg("preflight: search_drop_offs lookup failed, skipping")
		return
	}
	for _, d := range dropOffs.Search {
		if d.WarehouseID == t.DropOffWarehouseID {
			return
		}
	}
	log.Warn().Str("task_id", t.TaskID).Str("warehouse_id", t.DropOffWarehouseID).
		Msg("preflight: drop_off_warehouse_id not returned by marketplace search_drop_offs")
}
