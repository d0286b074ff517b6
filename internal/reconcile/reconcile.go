// Package reconcile splits loaded records into expenses and refunds and
// cancels refunds against the purchases they reverse.
package reconcile

import (
	"context"
	"fmt"

	"mfdash/internal/core"
	"mfdash/internal/log"
	"mfdash/internal/storage"
)

// Options tune refund matching.
type Options struct {
	WindowDays   int
	AbsTolerance float64
	PctTolerance float64
	Similarity   float64
}

func DefaultOptions() Options {
	return Options{
		WindowDays:   14,
		AbsTolerance: 100,
		PctTolerance: 0.05,
		Similarity:   0.8,
	}
}

// Pair is an expense cancelled by a refund.
type Pair struct {
	Expense    core.Expense
	Refund     core.Expense
	Similarity float64
}

// Result is the reconciled dataset.
type Result struct {
	Expenses []core.Expense
	Refunds  []core.Expense
	Pairs    []Pair
	Rows     int
}

type Reconciler struct {
	opts   Options
	logger *log.Logger
}

func New(opts Options, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.Discard()
	}
	return &Reconciler{opts: opts, logger: logger.WithComponent(log.ComponentReconcile)}
}

// Split separates included outflows from included inflows. Excluded rows
// and zero amounts belong to neither.
func Split(records []core.Expense) (expenses, refunds []core.Expense) {
	for _, r := range records {
		switch {
		case r.IsExpense():
			expenses = append(expenses, r)
		case r.IsRefund():
			refunds = append(refunds, r)
		}
	}
	return expenses, refunds
}

// Reconcile removes every expense/refund pair whose dates and amounts are
// close and whose descriptions are similar. Each refund cancels at most one
// expense; an expense may absorb several refunds. Candidates are visited in
// expense order, then refund order.
func (rc *Reconciler) Reconcile(ctx context.Context, records []core.Expense) (Result, error) {
	expenses, refunds := Split(records)
	res := Result{Rows: len(records)}
	if len(expenses) == 0 || len(refunds) == 0 {
		res.Expenses, res.Refunds = expenses, refunds
		return res, nil
	}

	db, err := storage.OpenMatchDB(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("open match db: %w", err)
	}
	defer db.Close()

	if err := db.Insert(ctx, expenses, refunds); err != nil {
		return Result{}, err
	}
	candidates, err := db.Candidates(ctx, storage.CandidateParams{
		WindowDays:   rc.opts.WindowDays,
		AbsTolerance: rc.opts.AbsTolerance,
		PctTolerance: rc.opts.PctTolerance,
	})
	if err != nil {
		return Result{}, err
	}

	usedExpense := make(map[int]bool)
	usedRefund := make(map[int]bool)
	for _, c := range candidates {
		if usedRefund[c.RefundSeq] {
			continue
		}
		a := cleanDescription(c.ExpenseDescription)
		b := cleanDescription(c.RefundDescription)
		if !worthComparing(a, b) {
			continue
		}
		sim := TokenSetRatio(a, b)
		if sim < rc.opts.Similarity {
			continue
		}
		usedExpense[c.ExpenseSeq] = true
		usedRefund[c.RefundSeq] = true
		res.Pairs = append(res.Pairs, Pair{
			Expense:    expenses[c.ExpenseSeq],
			Refund:     refunds[c.RefundSeq],
			Similarity: sim,
		})
	}

	res.Expenses = keep(expenses, usedExpense)
	res.Refunds = keep(refunds, usedRefund)

	rc.logger.DebugContext(ctx, "Refunds reconciled",
		"candidates", len(candidates),
		log.FieldCancelled, len(res.Pairs),
		log.FieldExpenses, len(res.Expenses),
		log.FieldRefunds, len(res.Refunds))
	return res, nil
}

func keep(rows []core.Expense, drop map[int]bool) []core.Expense {
	out := make([]core.Expense, 0, len(rows)-len(drop))
	for i, r := range rows {
		if !drop[i] {
			out = append(out, r)
		}
	}
	return out
}
