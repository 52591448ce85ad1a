// Package reservations is the client for the reservation feed. One fetch
// issues several overlapping queries and merges them, since no single
// query reliably returns every stay relevant to a window.
package reservations

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/sources"
	"github.com/agentstation/staymap/pkg/stays"
	"github.com/agentstation/staymap/pkg/units"
)

// Strategy names one reservation query.
type Strategy string

// Query strategies.
const (
	ByArrival   Strategy = "arrival"
	ByDeparture Strategy = "departure"
	Recent      Strategy = "recent"
)

// Strategies returns every strategy in the order results are merged.
func Strategies() []Strategy {
	return []Strategy{ByArrival, ByDeparture, Recent}
}

type reservationsResponse struct {
	Reservations []wireReservation `json:"reservations"`
}

type wireReservation struct {
	ID         reservationID `json:"id"`
	UnitID     units.ID      `json:"unitId"`
	Arrival    string        `json:"arrival"`
	Departure  string        `json:"departure"`
	Status     string        `json:"status"`
	GuestName  string        `json:"guestName"`
	Comment    string        `json:"comment"`
	Notes      string        `json:"notes"`
	TotalPrice json.Number   `json:"totalPrice"`
	Currency   string        `json:"currency"`
	UpdatedAt  string        `json:"updatedAt"`
}

// reservationID accepts string and numeric IDs, like units.ID.
type reservationID string

func (id *reservationID) UnmarshalJSON(data []byte) error {
	var v units.ID
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*id = reservationID(v)
	return nil
}

func (w wireReservation) stay() (stays.Stay, error) {
	arrival, err := stays.ParseDate(w.Arrival)
	if err != nil {
		return stays.Stay{}, errors.NewParseError("date", sources.Reservations.String(), "arrival "+strconv.Quote(w.Arrival), err)
	}
	departure, err := stays.ParseDate(w.Departure)
	if err != nil {
		return stays.Stay{}, errors.NewParseError("date", sources.Reservations.String(), "departure "+strconv.Quote(w.Departure), err)
	}
	s := stays.Stay{
		ID:        string(w.ID),
		UnitID:    w.UnitID,
		GuestName: strings.TrimSpace(w.GuestName),
		Arrival:   arrival,
		Departure: departure,
		Lifecycle: stays.ParseLifecycle(w.Status),
		Comment:   w.Comment,
		Notes:     w.Notes,
		Currency:  strings.ToUpper(strings.TrimSpace(w.Currency)),
	}
	if w.TotalPrice != "" {
		s.TotalPrice, _ = w.TotalPrice.Float64()
	}
	if w.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, w.UpdatedAt); err == nil {
			s.UpdatedAt = t.UTC()
		}
	}
	return s, nil
}

// Client fetches reservations.
type Client struct {
	http        *transport.Client
	pageSize    int
	maxPages    int
	recentLimit int
}

var _ sources.ReservationFetcher = (*Client)(nil)

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

// WithMaxPages caps the number of pages each dated strategy reads.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// WithRecentLimit sets how many reservations the recent query reads.
func WithRecentLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.recentLimit = n
		}
	}
}

// New creates a reservations client over an HTTP transport.
func New(http *transport.Client, opts ...Option) *Client {
	c := &Client{
		http:        http,
		pageSize:    constants.DefaultPageSize,
		maxPages:    constants.MaxPaginationIterations,
		recentLimit: constants.DefaultRecentLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchReservations runs every strategy concurrently and merges the results
// by reservation ID; when two strategies return the same reservation the
// one updated later wins.
//
// A strategy that fails, or a dated strategy cut off at the page cap,
// becomes a *errors.PartialFetchError. The merged list is then returned
// with the joined partial errors. Only when every strategy fails is the
// fetch a *errors.FetchError.
func (c *Client) FetchReservations(ctx context.Context, window stays.Window) ([]stays.Stay, error) {
	ctx = logging.WithSource(ctx, sources.Reservations.String())
	logger := logging.FromContext(ctx)

	strategies := Strategies()
	results := make([][]stays.Stay, len(strategies))
	failures := make([]error, len(strategies))
	truncated := make([]bool, len(strategies))

	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() error {
			list, cut, err := c.fetch(ctx, s, c.query(s, window))
			if err != nil {
				failures[i] = &errors.PartialFetchError{Source: sources.Reservations.String(), Query: string(s), Err: err}
				return nil
			}
			results[i], truncated[i] = list, cut
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failed, partial []error
	for i, s := range strategies {
		switch {
		case failures[i] != nil:
			failed = append(failed, failures[i])
			logger.Warn().Err(failures[i]).Msg("Reservation query failed")
		case truncated[i]:
			partial = append(partial, &errors.PartialFetchError{Source: sources.Reservations.String(), Query: string(s), Err: errors.ErrTruncated})
		}
	}
	if len(failed) == len(strategies) {
		return nil, errors.NewFetchError(sources.Reservations.String(), "reservations", errors.Join(failed...))
	}

	merged := Merge(results...)
	logger.Debug().Int("reservations", len(merged)).Int("failed_queries", len(failed)).Msg("Reservations fetched")
	return merged, errors.Join(append(failed, partial...)...)
}

// Merge deduplicates stays by ID. On conflict the stay with the later
// UpdatedAt wins; on a tie the first one seen is kept. The result is sorted
// by arrival, then ID.
func Merge(lists ...[]stays.Stay) []stays.Stay {
	byID := map[string]stays.Stay{}
	for _, list := range lists {
		for _, s := range list {
			if prev, ok := byID[s.ID]; ok && !s.UpdatedAt.After(prev.UpdatedAt) {
				continue
			}
			byID[s.ID] = s
		}
	}

	out := make([]stays.Stay, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Arrival.Equal(out[j].Arrival) {
			return out[i].Arrival.Before(out[j].Arrival)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Client) query(s Strategy, window stays.Window) url.Values {
	q := url.Values{}
	from, to := window.From.Format(constants.DateFormat), window.To.Format(constants.DateFormat)
	switch s {
	case ByArrival:
		q.Set("arrivalFrom", from)
		q.Set("arrivalTo", to)
	case ByDeparture:
		q.Set("departureFrom", from)
		q.Set("departureTo", to)
	case Recent:
		// no date filter, so stays spanning the whole window are seen
		q.Set("sort", "-arrival")
	}
	return q
}

// fetch reads the pages of one strategy. Dated strategies stop at the
// page cap and report it as truncated; the recent query stops at its
// limit, which is not a truncation.
func (c *Client) fetch(ctx context.Context, s Strategy, base url.Values) ([]stays.Stay, bool, error) {
	logger := logging.FromContext(ctx)

	pageSize, maxPages := c.pageSize, c.maxPages
	if s == Recent {
		pageSize = min(pageSize, c.recentLimit)
		maxPages = (c.recentLimit + pageSize - 1) / pageSize
	}

	var out []stays.Stay
	for page := 0; ; page++ {
		if page >= maxPages {
			if s == Recent {
				return out, false, nil
			}
			logger.Warn().Str("query", string(s)).Int("pages", page).Msg("Reservation pagination cap reached, result truncated")
			return out, true, nil
		}

		q := url.Values{}
		for k, v := range base {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(pageSize))
		q.Set("offset", strconv.Itoa(page*pageSize))

		var resp reservationsResponse
		if err := c.http.Get(ctx, "/reservations", q, &resp); err != nil {
			return nil, false, err
		}
		for _, w := range resp.Reservations {
			st, err := w.stay()
			if err != nil {
				logger.Warn().Err(err).Str("reservation_id", string(w.ID)).Msg("Skipping reservation")
				continue
			}
			out = append(out, st)
		}
		if len(resp.Reservations) < pageSize {
			return out, false, nil
		}
	}
}
