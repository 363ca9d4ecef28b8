package remote

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize     = 50
	ledgerPageSize      = 100
	obligationsPageSize = 50
)

// Resource models a generic JSON:API resource object.
type Resource struct {
	Type          string                    `json:"type"`
	ID            string                    `json:"id"`
	Attributes    map[string]any            `json:"attributes,omitempty"`
	Relationships map[string]map[string]any `json:"relationships,omitempty"`
	Links         map[string]string         `json:"links,omitempty"`
}

// ResourceResponse models endpoints returning a single resource.
type ResourceResponse struct {
	Data Resource `json:"data"`
}

// ListResponse models paginated list endpoints.
type ListResponse struct {
	Data  []Resource `json:"data"`
	Links struct {
		Prev *string `json:"prev"`
		Next *string `json:"next"`
	} `json:"links"`
}

func pageSizeQuery(size int) url.Values {
	query := url.Values{}
	if size <= 0 {
		size = defaultPageSize
	}
	query.Set("page[size]", strconv.Itoa(size))
	return query
}
