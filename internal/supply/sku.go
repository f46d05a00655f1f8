package supply

import (
	"context"
	"fmt"
	"strconv"

	"github.com/amalgammas/ozon-slotbot/internal/marketplace"
	"github.com/amalgammas/ozon-slotbot/internal/task"
)

const skuResolveBatchSize = 100

// resolveSKUs fills in every item's sku: an article that parses as a
// positive integer is used directly, otherwise unresolved articles are
// batched (100 per call) through the product info endpoint. An article
// that cannot be resolved is a fatal input error.
func resolveSKUs(ctx context.Context, client marketplace.Client, creds marketplace.Credentials, items []task.Item) ([]task.Item, error) {
	out := make([]task.Item, len(items))
	copy(out, items)

	var pending []int
	for i, it := range out {
		if it.SKU != 0 {
			continue
		}
		if n, err := strconv.ParseInt(it.Article, 10, 64); err == nil && n > 0 {
			out[i].SKU = n
			continue
		}
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += skuResolveBatchSize {
		end := start + skuResolveBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		articles := make([]string, len(batch))
		for j, idx := range batch {
			articles[j] = out[idx].Article
		}

		resp, err := client.ResolveOffersToSKUs(ctx, creds, articles)
		if err != nil {
			return nil, fmt.Errorf("supply: resolve_offers_to_skus: %w", err)
		}

		bySKU := make(map[string]int64, len(resp.Items))
		for _, item := range resp.Items {
			switch {
			case item.SKU != 0:
				bySKU[item.OfferID] = item.SKU
			case len(item.Sources) > 0:
				bySKU[item.OfferID] = item.Sources[0].SKU
			}
		}

		for _, idx := range batch {
			sku, ok := bySKU[out[idx].Article]
			if !ok || sku == 0 {
				return nil, fmt.Errorf("%w: article %q could not be resolved to a sku", ErrInputInvalid, out[idx].Article)
			}
			out[idx].SKU = sku
		}
	}

	return out, nil
}
