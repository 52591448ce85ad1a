// Package tableapi is a store.Store backed by a hosted table API: rows are
// listed with cursor pagination and written one at a time.
package tableapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/agentstation/staymap/internal/transport"
	"github.com/agentstation/staymap/pkg/constants"
	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/store"
)

type listResponse struct {
	Records []store.Record `json:"records"`
	Offset  string         `json:"offset,omitempty"`
}

type writeRequest struct {
	Fields store.Fields `json:"fields"`
}

// Store talks to the table API.
type Store struct {
	http     *transport.Client
	pageSize int
	maxPages int
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the list page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = min(n, constants.MaxPageSize)
		}
	}
}

// New creates a store over an HTTP transport.
func New(http *transport.Client, opts ...Option) *Store {
	s := &Store{http: http, pageSize: constants.DefaultPageSize, maxPages: constants.MaxPaginationIterations}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List implements store.Store. It follows the offset cursor until the API
// stops returning one. A list that hits the page cap is an error, since a
// partial listing would make a sync delete rows it never saw.
func (s *Store) List(ctx context.Context, table string) ([]store.Record, error) {
	var out []store.Record
	cursor := ""
	for page := 0; page < s.maxPages; page++ {
		q := url.Values{}
		q.Set("pageSize", strconv.Itoa(s.pageSize))
		if cursor != "" {
			q.Set("offset", cursor)
		}

		var resp listResponse
		if err := s.http.Get(ctx, path(table), q, &resp); err != nil {
			return nil, errors.WrapResource("list", table, "", err)
		}
		for _, r := range resp.Records {
			if r.Fields == nil {
				r.Fields = store.Fields{}
			}
			out = append(out, r)
		}
		if resp.Offset == "" {
			return out, nil
		}
		cursor = resp.Offset
	}

	logging.FromContext(ctx).Error().Str("table", table).Int("pages", s.maxPages).Msg("Table listing exceeded page cap")
	return nil, errors.NewResourceError("list", table, "", errors.NewValidationError("pages", s.maxPages, "page cap exceeded"))
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	var rec store.Record
	if err := s.http.Do(ctx, http.MethodPost, path(table), nil, writeRequest{Fields: fields}, &rec); err != nil {
		return store.Record{}, errors.WrapResource("create", table, "", err)
	}
	return rec, nil
}

// Update implements store.Store. The API merges the sent fields into the row.
func (s *Store) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	var rec store.Record
	if err := s.http.Do(ctx, http.MethodPatch, path(table, id), nil, writeRequest{Fields: fields}, &rec); err != nil {
		return store.Record{}, errors.WrapResource("update", table, id, err)
	}
	return rec, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	if err := s.http.Do(ctx, http.MethodDelete, path(table, id), nil, nil, nil); err != nil {
		return errors.WrapResource("delete", table, id, err)
	}
	return nil
}

func path(parts ...string) string {
	p := ""
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
