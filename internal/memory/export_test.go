package memory

import (
	"context"
	"database/sql"
	"strings"
)

// DB exposes the internal *sql.DB for test helpers in memory_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EntryPath exposes the stored document path of an entry.
func (s *Store) EntryPath(ctx context.Context, id string) (string, error) {
	return s.entryPath(ctx, id)
}

// FailExecOn makes every statement containing substr fail with err.
func (s *Store) FailExecOn(substr string, err error) {
	s.hooks.exec = func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(query, substr) {
			return nil, err
		}
		return db.ExecContext(ctx, query, args...)
	}
}

// FailQueryOn makes every query containing substr fail with err.
func (s *Store) FailQueryOn(substr string, err error) {
	s.hooks.queryIt = func(ctx context.Context, db queryer, query string, args ...any) (rowScanner, error) {
		if strings.Contains(query, substr) {
			return nil, err
		}
		rows, qerr := db.QueryContext(ctx, query, args...)
		if qerr != nil {
			return nil, qerr
		}
		return sqlRowScanner{rows: rows}, nil
	}
}

// FailCommit makes every transaction commit fail with err.
func (s *Store) FailCommit(err error) {
	s.hooks.commit = func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return err
	}
}

// PlanSearch exposes the SQL built for a search and whether it uses FTS.
func PlanSearch(p SearchParams, limit int) (query string, args []any, fts bool) {
	plan := planSearch(p, limit)
	return plan.sql, plan.args, plan.mode == textFTS
}
