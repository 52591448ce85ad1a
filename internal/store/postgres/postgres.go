// Package postgres is a store.Store kept in one Postgres table. Every
// logical table is a partition of table_records keyed by table name, with
// the row's fields held as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"io/fs"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"

	"github.com/agentstation/staymap/pkg/errors"
	"github.com/agentstation/staymap/pkg/logging"
	"github.com/agentstation/staymap/pkg/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	listQuery   = `SELECT id, fields FROM table_records WHERE table_name = $1 ORDER BY position`
	insertQuery = `INSERT INTO table_records (table_name, id, fields) VALUES ($1, $2, $3)`
	updateQuery = `UPDATE table_records SET fields = fields || $3::jsonb, updated_at = now() WHERE table_name = $1 AND id = $2 RETURNING fields`
	deleteQuery = `DELETE FROM table_records WHERE table_name = $1 AND id = $2`
)

// Store is a Postgres-backed store.Store.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to dsn through the pgx driver and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, errors.NewConfigError("postgres", "database URL is required", nil)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.NewConfigError("postgres", "invalid database URL", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("connect", "postgres", "", err)
	}
	return New(db), nil
}

// New wraps an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, fsys)
	if err != nil {
		return errors.WrapResource("migrate", "postgres", "", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return errors.WrapResource("migrate", "postgres", "", err)
	}
	for _, r := range results {
		logging.FromContext(ctx).Info().Str("migration", r.Source.Path).Dur("duration", r.Duration).Msg("Migration applied")
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// List implements store.Store. Rows come back in insertion order.
func (s *Store) List(ctx context.Context, table string) ([]store.Record, error) {
	rows, err := s.db.QueryContext(ctx, listQuery, table)
	if err != nil {
		return nil, errors.WrapResource("list", table, "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Record
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, errors.WrapResource("list", table, "", err)
		}
		fields, err := decode(raw)
		if err != nil {
			return nil, errors.WrapParse("json", table, err)
		}
		out = append(out, store.Record{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", table, "", err)
	}
	return out, nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return store.Record{}, errors.WrapParse("json", table, err)
	}
	id := "rec" + uuid.NewString()
	if _, err := s.db.ExecContext(ctx, insertQuery, table, id, raw); err != nil {
		return store.Record{}, errors.WrapResource("create", table, "", err)
	}
	return store.Record{ID: id, Fields: fields.Clone()}, nil
}

// Update implements store.Store. The given fields are merged into the row.
func (s *Store) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return store.Record{}, errors.WrapParse("json", table, err)
	}
	var merged []byte
	err = s.db.QueryRowContext(ctx, updateQuery, table, id, raw).Scan(&merged)
	if err == sql.ErrNoRows {
		return store.Record{}, errors.NewNotFoundError(table, id)
	}
	if err != nil {
		return store.Record{}, errors.WrapResource("update", table, id, err)
	}
	out, err := decode(merged)
	if err != nil {
		return store.Record{}, errors.WrapParse("json", table, err)
	}
	return store.Record{ID: id, Fields: out}, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	res, err := s.db.ExecContext(ctx, deleteQuery, table, id)
	if err != nil {
		return errors.WrapResource("delete", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError(table, id)
	}
	return nil
}

func decode(raw []byte) (store.Fields, error) {
	fields := store.Fields{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = store.Fields{}
	}
	return fields, nil
}
