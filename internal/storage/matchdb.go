package storage

import (
	"context"
	"database/sql"
	"fmt"

	"mfdash/internal/core"

	_ "modernc.org/sqlite"
)

// MatchDB is a throwaway in-memory database used to find expense/refund
// pairs close in date and amount. One is opened per load.
type MatchDB struct {
	db *sql.DB
}

// Candidate is an expense/refund pair that passed the date and amount
// filters. Seq values index the slices given to Insert.
type Candidate struct {
	ExpenseSeq         int
	RefundSeq          int
	ExpenseDescription string
	RefundDescription  string
}

// CandidateParams bounds the candidate join.
type CandidateParams struct {
	WindowDays   int
	AbsTolerance float64
	PctTolerance float64
}

func OpenMatchDB(ctx context.Context) (*MatchDB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &MatchDB{db: db}, nil
}

func (m *MatchDB) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Insert stores expenses and refunds in one transaction, keyed by their
// index in the given slices.
func (m *MatchDB) Insert(ctx context.Context, expenses, refunds []core.Expense) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range []struct {
		table string
		rows  []core.Expense
	}{{"expenses", expenses}, {"refunds", refunds}} {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO "+t.table+" (seq, id, day, description, abs_amount) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare %s insert: %w", t.table, err)
		}
		for i, e := range t.rows {
			if _, err := stmt.ExecContext(ctx, i, e.ID, epochDay(e.Date), e.Description, e.Amount.Abs().Float()); err != nil {
				stmt.Close()
				return fmt.Errorf("insert %s row %d: %w", t.table, i, err)
			}
		}
		stmt.Close()
	}
	return tx.Commit()
}

const candidatesQuery = `
SELECT e.seq, r.seq, e.description, r.description
FROM expenses e
JOIN refunds r
  ON r.day BETWEEN e.day - ?1 AND e.day + ?1
 AND (r.abs_amount BETWEEN e.abs_amount - ?2 AND e.abs_amount + ?2
   OR r.abs_amount BETWEEN e.abs_amount * (1 - ?3) AND e.abs_amount * (1 + ?3))
ORDER BY e.seq, r.seq`

// Candidates returns pairs within the date window whose amounts differ by
// at most the absolute or the relative tolerance.
func (m *MatchDB) Candidates(ctx context.Context, p CandidateParams) ([]Candidate, error) {
	rows, err := m.db.QueryContext(ctx, candidatesQuery, p.WindowDays, p.AbsTolerance, p.PctTolerance)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.ExpenseSeq, &c.RefundSeq, &c.ExpenseDescription, &c.RefundDescription); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func epochDay(d core.Date) int64 {
	return d.Unix() / 86400
}
