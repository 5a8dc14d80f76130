// Package ese defines the interface boundary against an Extensible
// Storage Engine reader: this module treats ESE page access as an
// external collaborator (see §6.1) and never re-implements an ESE page
// engine. A production deployment supplies a concrete Database, for
// example a cgo binding over libesedb.
package ese

// Column describes one column of a Table, by name and declared type
// in the ESE sense; the extractor only ever branches on Name.
type Column struct {
	Name string
	Type int
}

// Record is one row of a Table. Implementations must tolerate being
// asked for a column index that does not exist in the row (returning
// ok=false), since mailbox schemas vary across Exchange versions.
type Record interface {
	// Raw returns the column's bytes as stored, or (nil, false) if the
	// column is absent, NULL, or out of range for this row.
	Raw(col int) ([]byte, bool)

	// IsLongValue reports whether the column's stored value is a
	// pointer into the long-value store rather than inline data.
	IsLongValue(col int) bool

	// LongValue dereferences a long-value column and returns its full
	// stream. Only valid when IsLongValue(col) is true.
	LongValue(col int) ([]byte, bool)
}

// Table is one ESE table: a name, its columns in storage order, and
// random access to its records by row index.
type Table interface {
	Name() string
	Columns() []Column
	RecordCount() int
	Record(i int) (Record, bool)
}

// Database is an open ESE database handle.
type Database interface {
	// Tables returns every table in the database, keyed by name
	// (e.g. "Message_1", "Folder_1", "Attachment_1").
	Tables() map[string]Table
	Close() error
}

// ColumnIndex builds a name→index lookup for a table's columns, the
// shape every row-reading helper in package erc expects as input.
func ColumnIndex(t Table) map[string]int {
	cols := t.Columns()
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c.Name] = i
	}
	return idx
}
