package erc

import "github.com/exchrecover/edbcore/internal/ese"

// fakeRecord and fakeTable back the erc package's tests with an
// in-memory ese.Table/ese.Record fixture; no real ESE reader is needed
// to exercise row-extraction logic.

type fakeRecord struct {
	values map[int][]byte
	long   map[int][]byte
}

func (r *fakeRecord) Raw(col int) ([]byte, bool) {
	v, ok := r.values[col]
	return v, ok
}

func (r *fakeRecord) IsLongValue(col int) bool {
	_, ok := r.long[col]
	return ok
}

func (r *fakeRecord) LongValue(col int) ([]byte, bool) {
	v, ok := r.long[col]
	return v, ok
}

type fakeTable struct {
	name    string
	columns []ese.Column
	records []*fakeRecord
}

func (t *fakeTable) Name() string             { return t.name }
func (t *fakeTable) Columns() []ese.Column     { return t.columns }
func (t *fakeTable) RecordCount() int          { return len(t.records) }
func (t *fakeTable) Record(i int) (ese.Record, bool) {
	if i < 0 || i >= len(t.records) {
		return nil, false
	}
	return t.records[i], true
}

func newFakeTable(colNames []string) *fakeTable {
	cols := make([]ese.Column, len(colNames))
	for i, n := range colNames {
		cols[i] = ese.Column{Name: n}
	}
	return &fakeTable{columns: cols}
}

func colIndex(t *fakeTable, name string) int {
	for i, c := range t.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}
