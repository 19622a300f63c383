package library

import (
	"database/sql"
	"fmt"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store persists games, game files and the naming configuration.
type Store struct {
	db *sql.DB
}

// NewStore creates a library store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Tx wraps an open transaction over the same tables.
type Tx struct {
	tx *sql.Tx
}

// Begin opens a transaction.
func (s *Store) Begin() (*Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error { return t.tx.Commit() }

// Rollback aborts the transaction. Safe to call after Commit.
func (t *Tx) Rollback() error { return t.tx.Rollback() }
