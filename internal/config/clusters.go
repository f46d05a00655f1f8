package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ClusterWarehouse is one operator-curated destination warehouse entry,
// used as a local sanity check before a task ever reaches the marketplace.
type ClusterWarehouse struct {
	WarehouseID string `yaml:"warehouse_id"`
	Name        string `yaml:"name"`
}

// ClusterDefinition is one operator-curated logistics cluster entry.
type ClusterDefinition struct {
	ID         string             `yaml:"id"`
	Name       string             `yaml:"name"`
	Warehouses []ClusterWarehouse `yaml:"warehouses"`
}

// ClustersConfig is a static allowlist of known clusters/warehouses. It
// supplements the marketplace's own POST /cluster/list: a curated default
// the demo CLI can check a task against before spending a rate-limit token
// on a marketplace round trip for a cluster_id that is obviously wrong.
type ClustersConfig struct {
	Clusters []ClusterDefinition `yaml:"clusters"`
}

// LoadClusters reads and parses a clusters.yaml file. A missing file is
// not an error: it returns an empty ClustersConfig, since the allowlist is
// an optional sanity check, not a hard dependency of the engine.
func LoadClusters(path string) (ClustersConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ClustersConfig{}, nil
	}
	if err != nil {
		return ClustersConfig{}, fmt.Errorf("config: read clusters file: %w", err)
	}

	var cfg ClustersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ClustersConfig{}, fmt.Errorf("config: parse clusters file: %w", err)
	}
	return cfg, nil
}

// HasCluster reports whether clusterID appears in the allowlist. An empty
// allowlist (no clusters.yaml present) always reports true; absence of
// curated data must never block a task.
func (c ClustersConfig) HasCluster(clusterID string) bool {
	if len(c.Clusters) == 0 {
		return true
	}
	for _, cl := range c.Clusters {
		if cl.ID == clusterID {
			return true
		}
	}
	return false
}

// HasWarehouse reports whether warehouseID appears under clusterID in the
// allowlist. Like HasCluster, an empty allowlist always reports true; a
// clusterID that is not in the allowlist also reports true, since there is
// no curated warehouse list to check it against.
func (c ClustersConfig) HasWarehouse(clusterID, warehouseID string) bool {
	if len(c.Clusters) == 0 {
		return true
	}
	for _, cl := range c.Clusters {
		if cl.ID != clusterID {
			continue
		}
		for _, w := range cl.Warehouses {
			if w.WarehouseID == warehouseID {
				return true
			}
		}
		return false
	}
	return true
}
