// Package pagination walks page-numbered listing endpoints sequentially.
//
// Petfinder reports the number of pages in a `pagination.total_pages` field of
// every listing response. Walk requests page 1, 2, ... one at a time with a
// fixed pause between requests and stops on the first of:
//   - an empty batch
//   - the reported last page
//   - the visitor returning false
//   - a request failure (pages already visited are kept)
//
// Example usage:
//
//	cfg := pagination.DefaultConfig()
//	animals, res := pagination.Collect(ctx, cfg, func(ctx context.Context, page int) (pagination.Page[json.RawMessage], error) {
//		return client.FetchAnimalsPage(ctx, filters.WithPage(page))
//	})
//
// When the server omits total_pages the walk stops after the first page. This
// can truncate multi-page results and is a known limitation.
package pagination
