package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// TokenModel is a row of the portal_tokens table
type TokenModel struct {
	bun.BaseModel `bun:"table:portal_tokens,alias:ptk"`

	Name      string    `bun:"name,pk"`
	Token     string    `bun:"token,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore persists the token in a SQL table through bun.
type BunStore struct {
	db   *bun.DB
	opts options
}

// OpenSQLite opens (or creates) a sqlite database at dsn and returns a
// BunStore with its table in place.
func OpenSQLite(ctx context.Context, dsn string, opts ...Option) (*BunStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open token database")
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	s := NewBunStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewBunStore wraps an existing bun database. Call Migrate before use when
// the table may not exist yet.
func NewBunStore(db *bun.DB, opts ...Option) *BunStore {
	return &BunStore{
		db:   db,
		opts: newOptions(opts),
	}
}

// Migrate creates the token table if needed
func (s *BunStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*TokenModel)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create token table")
	}
	return nil
}

// DB exposes the underlying database handle
func (s *BunStore) DB() *bun.DB {
	return s.db
}

// Close closes the underlying database
func (s *BunStore) Close() error {
	return s.db.Close()
}

func (s *BunStore) Read() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()

	var model TokenModel
	err := s.db.NewSelect().
		Model(&model).
		Where("name = ?", s.opts.key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.opts.logger.Error("token lookup failed, treating as empty: %v", err)
		}
		return "", false
	}

	if model.Token == "" {
		return "", false
	}
	return model.Token, true
}

func (s *BunStore) Write(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()

	model := &TokenModel{
		Name:      s.opts.key,
		Token:     token,
		UpdatedAt: s.opts.now().UTC(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (name) DO UPDATE").
		Set("token = EXCLUDED.token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist token")
	}
	return nil
}

func (s *BunStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.timeout)
	defer cancel()

	_, err := s.db.NewDelete().
		Model((*TokenModel)(nil)).
		Where("name = ?", s.opts.key).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear token")
	}
	return nil
}
