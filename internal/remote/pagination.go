package remote

import (
	"context"
	"fmt"
	"net/url"
)

// listAll fetches path and every page linked through links.next.
func (c *Client) listAll(ctx context.Context, path string, query url.Values) (*ListResponse, error) {
	var page ListResponse
	if err := c.get(ctx, path, query, &page); err != nil {
		return nil, err
	}

	out := &ListResponse{
		Data: append([]Resource{}, page.Data...),
	}
	out.Links = page.Links

	seen := map[string]bool{}
	nextURL := page.Links.Next
	for nextURL != nil && *nextURL != "" {
		resolvedURL, err := resolveListURL(c.baseURL, *nextURL)
		if err != nil {
			return nil, err
		}
		if seen[resolvedURL] {
			return nil, fmt.Errorf("pagination loop at %s", resolvedURL)
		}
		seen[resolvedURL] = true

		page = ListResponse{}
		if err := c.getURL(ctx, resolvedURL, &page); err != nil {
			return nil, err
		}
		out.Data = append(out.Data, page.Data...)
		out.Links = page.Links
		nextURL = page.Links.Next
	}

	return out, nil
}

func resolveListURL(baseURL, next string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	ref, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("parse next page URL: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
