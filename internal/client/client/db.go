package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/journeykeeper/internal/client/migrations"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/journeys"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/recordings"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/journeykeeper/internal/client/repositories/syncqueue"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Repositories struct {
	Recordings recordings.Repository
	Session    session.Repository
	Journeys   journeys.Repository
	SyncQueue  syncqueue.Repository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Recordings: recordings.NewSQLiteRepository(db),
		Session:    session.NewSQLiteRepository(db),
		Journeys:   journeys.NewSQLiteRepository(db),
		SyncQueue:  syncqueue.NewSQLiteRepository(db),
	}
}

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	return migrations.Up(ctx, db.DB)
}

// InitDatabase opens the device database at dsn, applies pragmas and brings
// the schema up to date. The pool is limited to one connection because
// SQLite serialises writers anyway.
func InitDatabase(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return db, nil
}
