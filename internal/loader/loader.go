// Package loader turns expense export files into core.Expense records.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mfdash/internal/core"
	"mfdash/internal/log"
)

// Input is one raw export file.
type Input struct {
	Name string
	Data []byte
}

// idNamespace seeds IDs for rows exported without an ID column.
var idNamespace = uuid.MustParse("6f1c7f52-3f0e-4a55-9d38-6c1b1a0e5a11")

type Loader struct {
	logger  *log.Logger
	workers int
}

func New(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Discard()
	}
	return &Loader{logger: logger.WithComponent(log.ComponentLoader), workers: runtime.GOMAXPROCS(0)}
}

// Load parses every input concurrently. Records come back in input order,
// rows in file order; the first ParseError aborts the whole load.
func (l *Loader) Load(ctx context.Context, inputs ...Input) ([]core.Expense, error) {
	if len(inputs) == 0 {
		return nil, &core.ParseError{Err: errors.New("no files")}
	}

	parsed := make([][]core.Expense, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			recs, err := Parse(in.Name, in.Data)
			if err != nil {
				return err
			}
			l.logger.DebugContext(ctx, "File parsed", log.FieldFile, in.Name, log.FieldRows, len(recs))
			parsed[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.WarnContext(ctx, "Load failed", log.FieldError, err)
		return nil, err
	}

	var n int
	for _, p := range parsed {
		n += len(p)
	}
	out := make([]core.Expense, 0, n)
	for _, p := range parsed {
		out = append(out, p...)
	}
	return out, nil
}

// Parse converts one export file into records.
func Parse(name string, data []byte) ([]core.Expense, error) {
	text, err := decode(data)
	if err != nil {
		return nil, &core.ParseError{File: name, Err: err}
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, &core.ParseError{File: name, Err: errors.New("empty file")}
	}
	if err != nil {
		return nil, &core.ParseError{File: name, Err: fmt.Errorf("read header: %w", err)}
	}
	cols := mapHeader(header)
	if missing := cols.missing(); len(missing) > 0 {
		return nil, &core.ParseError{
			File:   name,
			Column: strings.Join(missing, ","),
			Err:    errors.New("missing required column"),
		}
	}

	var out []core.Expense
	for row := 1; ; row++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &core.ParseError{File: name, Row: row, Err: err}
		}
		if blank(rec) {
			continue
		}
		e, err := parseRow(name, row, cols, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(name string, row int, cols columns, rec []string) (core.Expense, error) {
	fail := func(f field, value string, err error) (core.Expense, error) {
		return core.Expense{}, &core.ParseError{File: name, Row: row, Column: fieldNames[f], Value: value, Err: err}
	}

	for _, f := range requiredFields {
		if _, ok := cols.value(rec, f); !ok {
			return fail(f, "", errors.New("missing value"))
		}
	}

	rawDate, _ := cols.value(rec, fieldDate)
	date, err := parseDate(rawDate)
	if err != nil {
		return fail(fieldDate, rawDate, err)
	}
	rawAmount, _ := cols.value(rec, fieldAmount)
	amount, err := core.ParseAmount(rawAmount)
	if err != nil {
		return fail(fieldAmount, rawAmount, err)
	}

	get := func(f field) string {
		v, _ := cols.value(rec, f)
		return cleanText(v)
	}
	include, _ := cols.value(rec, fieldInclude)
	transfer, _ := cols.value(rec, fieldTransfer)

	e := core.Expense{
		ID:          get(fieldID),
		Date:        date,
		Description: get(fieldDescription),
		Amount:      amount,
		Institution: get(fieldInstitution),
		Major:       get(fieldMajor),
		Minor:       get(fieldMinor),
		Memo:        get(fieldMemo),
		Include:     parseFlag(include, true),
		Transfer:    parseFlag(transfer, false),
		SourceFile:  name,
		SourceRow:   row,
	}
	if e.Major == "" {
		e.Major = uncategorized
	}
	if e.Minor == "" {
		e.Minor = uncategorized
	}
	if e.ID == "" {
		e.ID = uuid.NewSHA1(idNamespace, []byte(fmt.Sprintf("%s#%d", name, row))).String()
	}
	if err := e.Validate(); err != nil {
		return fail(fieldMajor, e.Major, err)
	}
	return e, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
