package database

import (
	"database/sql"

	_ "github.com/lib/pq"
)

func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

type PgRepository struct {
	conn *sql.DB
}

func NewPgRepository(dsn string) (*PgRepository, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	return &PgRepository{conn: db}, nil
}

// DB exposes the underlying pool, e.g. for running migrations.
func (db *PgRepository) DB() *sql.DB {
	return db.conn
}

func (db *PgRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

type PgCoreRepository struct {
	conn *sql.DB
}

func NewPgCoreRepository(dsn string) (*PgCoreRepository, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	return &PgCoreRepository{conn: db}, nil
}

func (db *PgCoreRepository) DB() *sql.DB {
	return db.conn
}

func (db *PgCoreRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgCoreRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
