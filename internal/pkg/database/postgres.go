package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database persists devices and their readings. The schema is owned by the
// migrations in the migration package. It is safe for concurrent use.
type Database struct {
	conn *pgxpool.Pool
}

func NewDatabase(conn *pgxpool.Pool) *Database {
	return &Database{
		conn: conn,
	}
}

func Connect(ctx context.Context, dsn string) (*Database, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return NewDatabase(pool), nil
}

func (db *Database) Close() error {
	if db.conn != nil {
		db.conn.Close()
	}
	return nil
}
