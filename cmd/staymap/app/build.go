package app

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/agentstation/staymap"
	"github.com/agentstation/staymap/internal/cache"
	"github.com/agentstation/staymap/internal/sources/calendar"
	"github.com/agentstation/staymap/internal/sources/catalog"
	"github.com/agentstation/staymap/internal/sources/overrides"
	"github.com/agentstation/staymap/internal/sources/reservations"
	"github.com/agentstation/staymap/internal/store/memory"
	"github.com/agentstation/staymap/internal/store/postgres"
	"github.com/agentstation/staymap/internal/store/tableapi"
	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/store"
	"github.com/agentstation/staymap/pkg/units"
)

// httpClient builds the transport for one upstream.
func (c *Config) httpClient(source, baseURL, apiKey, auth string) (*transport.Client, error) {
	authenticator, err := transport.ParseAuth(auth)
	if err != nil {
		return nil, errors.NewConfigError(source, "invalid auth scheme", err)
	}
	return transport.New(transport.Config{
		Source:    source,
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Auth:      authenticator,
		Timeout:   c.HTTPTimeout,
		RateLimit: rate.Limit(c.RateLimit),
	})
}

// buildStore opens the configured store. The returned closer is nil when
// the store holds no resources.
func (c *Config) buildStore(ctx context.Context) (store.Store, io.Closer, error) {
	switch c.StoreBackend {
	case StoreTableAPI:
		http, err := c.httpClient("store", c.StoreURL, c.StoreAPIKey, c.StoreAuth)
		if err != nil {
			return nil, nil, err
		}
		return tableapi.New(http), nil, nil

	case StorePostgres:
		pg, err := postgres.Open(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
		return pg, pg, nil

	default:
		return memory.New(), nil, nil
	}
}

// buildCatalog builds the catalog feed, wrapped in the Redis fallback cache
// when REDIS_URL is set.
func (c *Config) buildCatalog(ctx context.Context) (sources.UnitCatalog, io.Closer, error) {
	http, err := c.httpClient(sources.Catalog.String(), c.CatalogURL, c.CatalogAPIKey, c.CatalogAuth)
	if err != nil {
		return nil, nil, err
	}
	feed := catalog.New(http)

	if c.RedisURL == "" {
		return feed, nil, nil
	}
	rdb, err := cache.Open(ctx, c.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewFallbackCatalog(feed, cache.NewCatalogCache(rdb, c.CatalogCacheTTL)), rdb, nil
}

// clientOptions builds every staymap option except the store and feeds.
func (c *Config) clientOptions() []staymap.Option {
	opts := []staymap.Option{
		staymap.WithRegion(units.RegionFilter{
			Countries:  c.RegionCountries,
			Cities:     c.RegionCities,
			NameTokens: c.RegionTokens,
		}),
		staymap.WithCalendarConcurrency(c.CalendarConcurrency),
		staymap.WithWindow(c.Lookback, c.Lookahead),
		staymap.WithTables(staymap.Tables{
			Units:      c.UnitsTable,
			Categories: c.CategoryTable,
			Reports:    c.ReportsTable,
		}),
		staymap.WithAutoSyncInterval(c.AutoSyncInterval),
	}

	if len(c.PremiumUnits) > 0 {
		ids := make([]units.ID, len(c.PremiumUnits))
		for i, id := range c.PremiumUnits {
			ids[i] = units.ID(id)
		}
		opts = append(opts, staymap.WithPremiumUnits(ids...))
	}
	if len(c.TestTokens) > 0 {
		opts = append(opts, staymap.WithTestDetector(stays.NewTokenDetector(c.TestTokens...)))
	}
	return opts
}

// resources is what building a client opened.
type resources struct {
	client  staymap.Client
	store   store.Store
	closers []io.Closer
}

// build validates the configuration and wires the client.
func (c *Config) build(ctx context.Context) (*resources, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	res := &resources{}
	fail := func(err error) (*resources, error) {
		res.close()
		return nil, err
	}

	// Step 1: Store
	st, closer, err := c.buildStore(ctx)
	if err != nil {
		return fail(err)
	}
	res.store = st
	res.add(closer)

	// Step 2: Feeds
	unitCatalog, closer, err := c.buildCatalog(ctx)
	if err != nil {
		return fail(err)
	}
	res.add(closer)

	reservationsHTTP, err := c.httpClient(sources.Reservations.String(), c.ReservationsURL, c.ReservationsAPIKey, c.ReservationsAuth)
	if err != nil {
		return fail(err)
	}
	calendarHTTP, err := c.httpClient(sources.Calendar.String(), c.CalendarURL, c.CalendarAPIKey, c.CalendarAuth)
	if err != nil {
		return fail(err)
	}

	// Step 3: Client
	opts := append(c.clientOptions(),
		staymap.WithStore(st),
		staymap.WithCatalog(unitCatalog),
		staymap.WithReservations(reservations.New(reservationsHTTP)),
		staymap.WithCalendar(calendar.New(calendarHTTP)),
		staymap.WithOverrides(overrides.New(st, c.OverridesTable)),
	)
	client, err := staymap.New(opts...)
	if err != nil {
		return fail(err)
	}
	res.client = client
	return res, nil
}

func (r *resources) add(c io.Closer) {
	if c != nil {
		r.closers = append(r.closers, c)
	}
}

// close releases resources in reverse order of acquisition.
func (r *resources) close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}
