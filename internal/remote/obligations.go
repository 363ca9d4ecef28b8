package remote

import (
	"context"
	"net/url"
)

// ListObligations calls GET /obligations and follows pagination.
func (c *Client) ListObligations(ctx context.Context) (*ListResponse, error) {
	return c.listAll(ctx, "/obligations", pageSizeQuery(obligationsPageSize))
}

// GetObligation calls GET /obligations/{id}.
func (c *Client) GetObligation(ctx context.Context, id string) (*ResourceResponse, error) {
	var out ResourceResponse
	if err := c.get(ctx, "/obligations/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
