package engine

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/alfredjeanlab/scout/internal/model"
)

// Table is the uniform tabular form of all records of one kind.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has nothing to emit.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0 || len(t.Columns) == 0
}

// Project flattens every record of kind into a table. Columns are the
// union of field keys in first-seen order across the store's natural
// record order; a missing or null field is an empty cell.
func (e *Engine) Project(ctx context.Context, kind model.Kind) (*Table, error) {
	recs, err := e.List(ctx, kind)
	if err != nil {
		return nil, err
	}
	return project(recs), nil
}

func project(recs []*model.Record) *Table {
	t := &Table{}
	index := make(map[string]int)
	for _, r := range recs {
		for _, k := range r.Fields.Keys() {
			if _, ok := index[k]; !ok {
				index[k] = len(t.Columns)
				t.Columns = append(t.Columns, k)
			}
		}
	}
	if len(t.Columns) == 0 {
		return t
	}
	for _, r := range recs {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			if v, ok := r.Fields.Get(col); ok {
				row[i] = v.Text()
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WriteCSV writes the header and rows as RFC 4180 text, quoting values
// that contain commas, quotes or line breaks. An empty table writes
// nothing.
func (t *Table) WriteCSV(w io.Writer) error {
	if t.Empty() {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
