// Package csvcodec reads and writes the ledger as CSV.
//
// Two formats exist and are deliberately kept apart:
//
//   - technical: one row per event with every field, meant for backups. Export
//     followed by import reproduces the same events (new ids, amounts within
//     one cent).
//   - table: one row per timeline movement with a human header, meant for
//     spreadsheets. It is a lossy projection: importing it recreates incomes
//     and expenses but never transfers, since a single leg cannot rebuild one.
//
// Import sniffs the header row to pick the decoder.
package csvcodec

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"zent/internal/core"
	"zent/internal/currency"
)

const (
	FormatTechnical Format = "technical"
	FormatTable     Format = "table"
)

const bom = "\uFEFF"

// Format names one of the two CSV layouts.
type Format string

// ParseFormat maps s to a format, defaulting to technical.
func ParseFormat(s string) Format {
	if Format(strings.ToLower(strings.TrimSpace(s))) == FormatTable {
		return FormatTable
	}
	return FormatTechnical
}

// Options tune decoding.
type Options struct {
	// LiveRate converts USD rows that carry neither a converted amount nor a rate.
	LiveRate float64
	// Now stamps rows whose date cannot be read.
	Now func() time.Time
	// NewID assigns ids to decoded events.
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	o.LiveRate = currency.EffectiveRate(o.LiveRate)
	return o
}

// RowError describes a row that was skipped.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Result is the outcome of decoding a file.
type Result struct {
	Format       Format
	Dataset      core.Dataset
	Skipped      int // rows that produced no event, including transfer legs
	TransferLegs int // table rows ignored on purpose
	Problems     []RowError
	Rows         []Row // decoded events in file order
}

// Row points at the event a file row produced.
type Row struct {
	Kind  core.EventKind
	Index int // position in the matching Dataset slice
	Line  int
}

func (r *Result) addIncome(line int, in core.IncomeEvent) {
	r.Rows = append(r.Rows, Row{Kind: core.KindIncome, Index: len(r.Dataset.Incomes), Line: line})
	r.Dataset.Incomes = append(r.Dataset.Incomes, in)
}

func (r *Result) addExpense(line int, ex core.ExpenseEvent) {
	r.Rows = append(r.Rows, Row{Kind: core.KindExpense, Index: len(r.Dataset.Expenses), Line: line})
	r.Dataset.Expenses = append(r.Dataset.Expenses, ex)
}

func (r *Result) addTransfer(line int, tr core.TransferEvent) {
	r.Rows = append(r.Rows, Row{Kind: core.KindTransfer, Index: len(r.Dataset.Transfers), Line: line})
	r.Dataset.Transfers = append(r.Dataset.Transfers, tr)
}

func (r *Result) skip(line int, format string, args ...any) {
	r.Skipped++
	r.Problems = append(r.Problems, RowError{Line: line, Reason: fmt.Sprintf(format, args...)})
}

var ErrEmptyFile = errors.New("csv file has no header row")

// DetectFormat reports the table format when the header carries its columns,
// the technical format otherwise.
func DetectFormat(header []string) Format {
	idx := indexHeader(header)
	for _, col := range []string{colDate, colKind, colAccount, colAmount} {
		if _, ok := idx[col]; !ok {
			return FormatTechnical
		}
	}
	return FormatTable
}

// Decode reads a whole file in either format.
func Decode(r io.Reader, opts Options) (Result, error) {
	opts = opts.withDefaults()

	reader := newReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return Result{}, ErrEmptyFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}

	format := DetectFormat(header)
	res := Result{Format: format}
	idx := indexHeader(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.skip(perr.StartLine, "unreadable row: %v", perr.Err)
				continue
			}
			return res, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rec := row{idx: idx, values: record, line: line}
		if format == FormatTable {
			decodeTableRow(rec, opts, &res)
		} else {
			decodeTechnicalRow(rec, opts, &res)
		}
	}
	return res, nil
}

func newReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if peek, err := br.Peek(len(bom)); err == nil && bytes.Equal(peek, []byte(bom)) {
		br.Discard(len(bom))
	}
	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, bom))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// row gives header-keyed access to one record; missing columns read as "".
type row struct {
	idx    map[string]int
	values []string
	line   int
}

func (r row) get(col string) string {
	i, ok := r.idx[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	v := strings.TrimSpace(r.values[i])
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "undefined") {
		return ""
	}
	return v
}
