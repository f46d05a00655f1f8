package marketplace

import (
	"context"
	"errors"
)

// ErrCredentialsRevoked is returned when the marketplace reports HTTP 403
// with code 7 ("api-key is deactivated"). The engine must abort the task
// and signal the chat layer to clear stored credentials, never retry.
var ErrCredentialsRevoked = errors.New("marketplace: api-key is deactivated")

// ErrDraftExpired is returned by DraftInfo when the marketplace reports
// HTTP 404 with code 5 ("draft expired"), which must be handled as a
// domain outcome, not a transport error.
var ErrDraftExpired = errors.New("marketplace: draft expired")

// Client is the typed surface the orchestration engine depends on. An
// HTTP-backed implementation lives in http_client.go; tests substitute a
// stub.
type Client interface {
	CreateDraft(ctx context.Context, creds Credentials, req CreateDraftRequest) (CreateDraftResponse, error)
	DraftInfo(ctx context.Context, creds Credentials, operationID string) (DraftInfoResponse, error)
	DraftTimeslots(ctx context.Context, creds Credentials, req DraftTimeslotInfoRequest) (DraftTimeslotInfoResponse, error)
	CreateSupply(ctx context.Context, creds Credentials, req CreateSupplyRequest) (CreateSupplyResponse, error)
	SupplyStatus(ctx context.Context, creds Credentials, operationID string) (SupplyStatusResponse, error)
	CancelSupply(ctx context.Context, creds Credentials, orderID int64) (CancelSupplyResponse, error)
	CancelStatus(ctx context.Context, creds Credentials, operationID string) (CancelStatusResponse, error)
	ListClusters(ctx context.Context, creds Credentials, clusterIDs []string, clusterType string) (ListClustersResponse, error)
	SearchDropOffs(ctx context.Context, creds Credentials, filterBySupplyType string, search string) (SearchDropOffsResponse, error)
	ResolveOffersToSKUs(ctx context.Context, creds Credentials, offerIDs []string) (ResolveOffersResponse, error)
}
