// Package catalog is the client for the unit catalog API.
package catalog

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/units"
)

type unitsResponse struct {
	Units []wireUnit `json:"units"`
}

type wireUnit struct {
	ID            units.ID `json:"id"`
	Name          string   `json:"name"`
	InternalName  string   `json:"internalName"`
	BedroomCount  *int     `json:"bedroomCount"`
	GuestCapacity *int     `json:"guestCapacity"`
	City          string   `json:"city"`
	Country       string   `json:"country"`
}

func (w wireUnit) unit() units.Unit {
	u := units.Unit{
		ID:            w.ID,
		Name:          w.Name,
		InternalName:  w.InternalName,
		Bedrooms:      w.BedroomCount,
		GuestCapacity: w.GuestCapacity,
		City:          w.City,
		Country:       w.Country,
	}
	u.Normalize()
	return u
}

// Client lists units from the catalog.
type Client struct {
	http     *transport.Client
	pageSize int
	maxPages int
}

var _ sources.UnitCatalog = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithPageSize sets the page size, clamped to the API maximum.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, constants.MaxPageSize)
		}
	}
}

// WithMaxPages caps the number of pages one fetch reads.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// New creates a catalog client over an HTTP transport.
func New(http *transport.Client, opts ...Option) *Client {
	c := &Client{
		http:     http,
		pageSize: constants.DefaultPageSize,
		maxPages: constants.MaxPaginationIterations,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAllUnits reads every page of the catalog and returns the units the
// filter matches, in upstream order. Units are not deduplicated. When the
// page cap stops the loop, the units read so far are returned with a
// *errors.PartialFetchError wrapping errors.ErrTruncated.
func (c *Client) FetchAllUnits(ctx context.Context, filter units.RegionFilter) ([]units.Unit, error) {
	ctx = logging.WithSource(ctx, sources.Catalog.String())
	logger := logging.FromContext(ctx)

	var (
		all       []units.Unit
		truncated error
	)
	for page := 0; ; page++ {
		if page >= c.maxPages {
			logger.Warn().Int("pages", page).Int("units", len(all)).Msg("Catalog pagination cap reached, result truncated")
			truncated = &errors.PartialFetchError{Source: sources.Catalog.String(), Query: "units", Err: errors.ErrTruncated}
			break
		}

		query := url.Values{}
		query.Set("limit", strconv.Itoa(c.pageSize))
		query.Set("offset", strconv.Itoa(page*c.pageSize))
		if len(filter.Countries) > 0 {
			query.Set("region", strings.Join(filter.Countries, ","))
		}

		var resp unitsResponse
		if err := c.http.Get(ctx, "/units", query, &resp); err != nil {
			return nil, errors.NewFetchError(sources.Catalog.String(), "units", err)
		}
		for _, w := range resp.Units {
			all = append(all, w.unit())
		}
		if len(resp.Units) < c.pageSize {
			break
		}
	}

	matched := filter.Filter(all)
	logger.Debug().Int("fetched", len(all)).Int("matched", len(matched)).Msg("Catalog fetched")
	return matched, truncated
}
