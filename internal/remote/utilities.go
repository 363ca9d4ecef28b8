package remote

import "context"

// Ping calls GET /util/ping and returns nil only when the key is accepted.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/util/ping", nil, nil)
}
