package remote

import (
	"context"
	"net/url"
)

// LedgerListOptions filters ledger listings by posting date.
type LedgerListOptions struct {
	SinceRFC string
	UntilRFC string
}

// ListTransactions calls GET /obligations/{id}/transactions and follows
// pagination.
func (c *Client) ListTransactions(ctx context.Context, obligationID string, opts LedgerListOptions) (*ListResponse, error) {
	query := pageSizeQuery(ledgerPageSize)
	applyLedgerFilters(query, opts)
	return c.listAll(ctx, "/obligations/"+url.PathEscape(obligationID)+"/transactions", query)
}

// ListBills calls GET /obligations/{id}/bills and follows pagination.
func (c *Client) ListBills(ctx context.Context, obligationID string, opts LedgerListOptions) (*ListResponse, error) {
	query := pageSizeQuery(ledgerPageSize)
	applyLedgerFilters(query, opts)
	return c.listAll(ctx, "/obligations/"+url.PathEscape(obligationID)+"/bills", query)
}

func applyLedgerFilters(query url.Values, opts LedgerListOptions) {
	if opts.SinceRFC != "" {
		query.Set("filter[since]", opts.SinceRFC)
	}
	if opts.UntilRFC != "" {
		query.Set("filter[until]", opts.UntilRFC)
	}
}
