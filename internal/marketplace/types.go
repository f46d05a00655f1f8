// Package marketplace defines the typed contract the orchestration engine
// consumes from the Ozon seller HTTP API, and an HTTP-backed implementation
// with retries, auth headers, and typed error surfacing for the status
// codes the engine must branch on.
package marketplace

import "time"

// Credentials authenticate every request against one seller account.
type Credentials struct {
	ClientID string
	APIKey   string
}

// Item is a draft line item expressed in the wire shape (SKU + quantity).
type Item struct {
	SKU      int64 `json:"sku"`
	Quantity int   `json:"quantity"`
}

// CreateDraftRequest is the payload for POST /draft/create.
type CreateDraftRequest struct {
	ClusterIDs              []string `json:"cluster_ids"`
	DropOffPointWarehouseID string   `json:"drop_off_point_warehouse_id,omitempty"`
	Items                   []Item   `json:"items"`
	Type                    string   `json:"type"`
}

// CreateDraftResponse is the response of POST /draft/create.
type CreateDraftResponse struct {
	OperationID string `json:"operation_id"`
}

// DraftStatus enumerates the draft lifecycle statuses the engine branches on.
type DraftStatus string

const (
	DraftStatusSuccess DraftStatus = "SUCCESS"
	DraftStatusFailed  DraftStatus = "FAILED"
	DraftStatusExpired DraftStatus = "EXPIRED"
	DraftStatusPending DraftStatus = "PENDING"
	DraftStatusUnknown DraftStatus = ""
)

// WarehouseState enumerates marketplace scoring states; only
// FullAvailable allows supply creation.
type WarehouseState string

const (
	WarehouseStateFullAvailable WarehouseState = "WAREHOUSE_SCORING_STATUS_FULL_AVAILABLE"
)

// SupplyWarehouse identifies a candidate destination warehouse.
type SupplyWarehouse struct {
	WarehouseID string `json:"warehouse_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
}

// WarehouseStatus carries the scoring outcome for one candidate warehouse.
type WarehouseStatus struct {
	State         WarehouseState `json:"state"`
	IsAvailable   bool           `json:"is_available"`
	InvalidReason string         `json:"invalid_reason,omitempty"`
}

// DraftWarehouse is one candidate destination inside a draft-info response.
type DraftWarehouse struct {
	SupplyWarehouse    SupplyWarehouse `json:"supply_warehouse"`
	Status             WarehouseStatus `json:"status"`
	TotalRank          *int            `json:"total_rank,omitempty"`
	TotalScore         *float64        `json:"total_score,omitempty"`
	TravelTimeDays     *int            `json:"travel_time_days,omitempty"`
	BundleIDs          []string        `json:"bundle_ids,omitempty"`
	RestrictedBundleID string          `json:"restricted_bundle_id,omitempty"`
}

// DraftCluster groups candidate warehouses under one logistics cluster.
type DraftCluster struct {
	Warehouses []DraftWarehouse `json:"warehouses"`
}

// ItemValidation reports a per-SKU validation error from a failed draft.
type ItemValidation struct {
	SKU     int64    `json:"sku"`
	Reasons []string `json:"reasons"`
}

// DraftError carries the validation detail of a FAILED draft.
type DraftError struct {
	ErrorMessage      string           `json:"error_message"`
	ItemsValidation   []ItemValidation `json:"items_validation,omitempty"`
	UnknownClusterIDs []string         `json:"unknown_cluster_ids,omitempty"`
}

// DraftInfoResponse is the response of POST /draft/create/info.
type DraftInfoResponse struct {
	Status   DraftStatus    `json:"status"`
	Code     int            `json:"code"`
	DraftID  string         `json:"draft_id"`
	Clusters []DraftCluster `json:"clusters"`
	Errors   []DraftError   `json:"errors,omitempty"`
}

// Timeslot is one candidate delivery window, warehouse-local time.
type Timeslot struct {
	FromInTimezone time.Time `json:"from_in_timezone"`
	ToInTimezone   time.Time `json:"to_in_timezone"`
}

// Day groups timeslots for one calendar day.
type Day struct {
	Timeslots []Timeslot `json:"timeslots"`
}

// WarehouseTimeslots is the forest of per-day timeslots for one warehouse.
type WarehouseTimeslots struct {
	WarehouseTimezone string `json:"warehouse_timezone"`
	Days              []Day  `json:"days"`
}

// DraftTimeslotInfoRequest is the payload for POST /draft/timeslot/info.
type DraftTimeslotInfoRequest struct {
	DraftID      string   `json:"draft_id"`
	DateFrom     string   `json:"date_from"`
	DateTo       string   `json:"date_to"`
	WarehouseIDs []string `json:"warehouse_ids"`
}

// DraftTimeslotInfoResponse is the response of POST /draft/timeslot/info.
type DraftTimeslotInfoResponse struct {
	DropOffWarehouseTimeslots []WarehouseTimeslots `json:"drop_off_warehouse_timeslots"`
}

// CreateSupplyRequest is the payload for POST /draft/supply/create.
type CreateSupplyRequest struct {
	DraftID     string   `json:"draft_id"`
	WarehouseID string   `json:"warehouse_id"`
	Timeslot    Timeslot `json:"timeslot"`
}

// CreateSupplyResponse is the response of POST /draft/supply/create.
type CreateSupplyResponse struct {
	OperationID string `json:"operation_id"`
}

// SupplyStatusResponse is the response of POST /draft/supply/create/status.
type SupplyStatusResponse struct {
	State  string `json:"state"`
	Status string `json:"status"`
	Result struct {
		OrderIDs []int64 `json:"order_ids"`
	} `json:"result"`
	Errors []string `json:"errors,omitempty"`
}

// CancelSupplyResponse is the response of POST /supply-order/cancel.
type CancelSupplyResponse struct {
	OperationID string `json:"operation_id"`
}

// CancelStatusResponse is the response of POST /supply-order/cancel/status.
type CancelStatusResponse struct {
	Status string `json:"status"`
	Result struct {
		IsOrderCancelled bool `json:"is_order_cancelled"`
		Supplies         []struct {
			SupplyID          string   `json:"supply_id"`
			IsSupplyCancelled bool     `json:"is_supply_cancelled"`
			ErrorReasons      []string `json:"error_reasons,omitempty"`
		} `json:"supplies"`
	} `json:"result"`
}

// Cluster is one entry of POST /cluster/list.
type Cluster struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	LogisticClusters []struct {
		Warehouses []struct {
			WarehouseID string `json:"warehouse_id"`
			Name        string `json:"name"`
		} `json:"warehouses"`
	} `json:"logistic_clusters"`
}

// ListClustersResponse is the response of POST /cluster/list.
type ListClustersResponse struct {
	Clusters []Cluster `json:"clusters"`
}

// DropOffWarehouse is one entry of POST /warehouse/fbo/list.
type DropOffWarehouse struct {
	WarehouseID   string `json:"warehouse_id"`
	WarehouseType string `json:"warehouse_type"`
	Address       string `json:"address"`
	Name          string `json:"name"`
}

// SearchDropOffsResponse is the response of POST /warehouse/fbo/list.
type SearchDropOffsResponse struct {
	Search []DropOffWarehouse `json:"search"`
}

// OfferResolution maps one offer_id/product_id to its resolved SKUs.
type OfferResolution struct {
	OfferID string  `json:"offer_id"`
	SKU     int64   `json:"sku"`
	Sources []struct {
		SKU int64 `json:"sku"`
	} `json:"sources"`
}

// ResolveOffersResponse is the response of POST /v3/product/info/list.
type ResolveOffersResponse struct {
	Items []OfferResolution `json:"items"`
}
