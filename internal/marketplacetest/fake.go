// Package marketplacetest provides a scriptable stub implementation of
// marketplace.Client for the orchestration engine's tests: one optional
// function field per method, with per-method call counters.
package marketplacetest

import (
	"context"
	"sync"

	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
)

// Client is a scriptable marketplace.Client. Each exported func field
// defaults to a zero-value, nil-error response if left unset. Call counts
// are tracked per method so tests can assert exactly how many times an
// endpoint was hit.
type Client struct {
	mu sync.Mutex

	CreateDraftFunc    func(ctx context.Context, creds marketplace.Credentials, req marketplace.CreateDraftRequest) (marketplace.CreateDraftResponse, error)
	DraftInfoFunc      func(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.DraftInfoResponse, error)
	DraftTimeslotsFunc func(ctx context.Context, creds marketplace.Credentials, req marketplace.DraftTimeslotInfoRequest) (marketplace.DraftTimeslotInfoResponse, error)
	CreateSupplyFunc   func(ctx context.Context, creds marketplace.Credentials, req marketplace.CreateSupplyRequest) (marketplace.CreateSupplyResponse, error)
	SupplyStatusFunc   func(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.SupplyStatusResponse, error)
	CancelSupplyFunc   func(ctx context.Context, creds marketplace.Credentials, orderID int64) (marketplace.CancelSupplyResponse, error)
	CancelStatusFunc   func(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.CancelStatusResponse, error)
	ListClustersFunc   func(ctx context.Context, creds marketplace.Credentials, clusterIDs []string, clusterType string) (marketplace.ListClustersResponse, error)
	SearchDropOffsFunc func(ctx context.Context, creds marketplace.Credentials, filterBySupplyType string, search string) (marketplace.SearchDropOffsResponse, error)
	ResolveOffersFunc  func(ctx context.Context, creds marketplace.Credentials, offerIDs []string) (marketplace.ResolveOffersResponse, error)

	calls map[string]int
}

func (c *Client) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[name]++
}

// Calls returns how many times method was invoked.
func (c *Client) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Client) CreateDraft(ctx context.Context, creds marketplace.Credentials, req marketplace.CreateDraftRequest) (marketplace.CreateDraftResponse, error) {
	c.record("CreateDraft")
	if c.CreateDraftFunc != nil {
		return c.CreateDraftFunc(ctx, creds, req)
	}
	return marketplace.CreateDraftResponse{}, nil
}

func (c *Client) DraftInfo(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.DraftInfoResponse, error) {
	c.record("DraftInfo")
	if c.DraftInfoFunc != nil {
		return c.DraftInfoFunc(ctx, creds, operationID)
	}
	return marketplace.DraftInfoResponse{}, nil
}

func (c *Client) DraftTimeslots(ctx context.Context, creds marketplace.Credentials, req marketplace.DraftTimeslotInfoRequest) (marketplace.DraftTimeslotInfoResponse, error) {
	c.record("DraftTimeslots")
	if c.DraftTimeslotsFunc != nil {
		return c.DraftTimeslotsFunc(ctx, creds, req)
	}
	return marketplace.DraftTimeslotInfoResponse{}, nil
}

func (c *Client) CreateSupply(ctx context.Context, creds marketplace.Credentials, req marketplace.CreateSupplyRequest) (marketplace.CreateSupplyResponse, error) {
	c.record("CreateSupply")
	if c.CreateSupplyFunc != nil {
		return c.CreateSupplyFunc(ctx, creds, req)
	}
	return marketplace.CreateSupplyResponse{}, nil
}

func (c *Client) SupplyStatus(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.SupplyStatusResponse, error) {
	c.record("SupplyStatus")
	if c.SupplyStatusFunc != nil {
		return c.SupplyStatusFunc(ctx, creds, operationID)
	}
	return marketplace.SupplyStatusResponse{}, nil
}

func (c *Client) CancelSupply(ctx context.Context, creds marketplace.Credentials, orderID int64) (marketplace.CancelSupplyResponse, error) {
	c.record("CancelSupply")
	if c.CancelSupplyFunc != nil {
		return c.CancelSupplyFunc(ctx, creds, orderID)
	}
	return marketplace.CancelSupplyResponse{}, nil
}

func (c *Client) CancelStatus(ctx context.Context, creds marketplace.Credentials, operationID string) (marketplace.CancelStatusResponse, error) {
	c.record("CancelStatus")
	if c.CancelStatusFunc != nil {
		return c.CancelStatusFunc(ctx, creds, operationID)
	}
	return marketplace.CancelStatusResponse{}, nil
}

func (c *Client) ListClusters(ctx context.Context, creds marketplace.Credentials, clusterIDs []string, clusterType string) (marketplace.ListClustersResponse, error) {
	c.record("ListClusters")
	if c.ListClustersFunc != nil {
		return c.ListClustersFunc(ctx, creds, clusterIDs, clusterType)
	}
	return marketplace.ListClustersResponse{}, nil
}

func (c *Client) SearchDropOffs(ctx context.Context, creds marketplace.Credentials, filterBySupplyType string, search string) (marketplace.SearchDropOffsResponse, error) {
	c.record("SearchDropOffs")
	if c.SearchDropOffsFunc != nil {
		return c.SearchDropOffsFunc(ctx, creds, filterBySupplyType, search)
	}
	return marketplace.SearchDropOffsResponse{}, nil
}

func (c *Client) ResolveOffersToSKUs(ctx context.Context, creds marketplace.Credentials, offerIDs []string) (marketplace.ResolveOffersResponse, error) {
	c.record("ResolveOffersToSKUs")
	if c.ResolveOffersFunc != nil {
		return c.ResolveOffersFunc(ctx, creds, offerIDs)
	}
	return marketplace.ResolveOffersResponse{}, nil
}

var _ marketplace.Client = (*Client)(nil)
