// Package exportstate implements the crash-resumable export ledger
// (C16): one shared SQLite file tracking which (mailbox, record) pairs
// a recovery run has already finished, so `--resume` can skip them.
package exportstate

import (
	"fmt"
	"io"
	"time"

	"crawshaw.io/iox"
	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"golang.org/x/sync/singleflight"
)

// Store is one open export-state database, shared across every
// mailbox a CLI invocation processes.
type Store struct {
	pool  *sqlitex.Pool
	filer *iox.Filer
	group singleflight.Group
}

// Open creates or reopens the state database at path.
func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, fmt.Errorf("exportstate.Open: init open: %v", err)
	}
	if err := sqlitex.ExecTransient(conn, "PRAGMA journal_mode=WAL;", nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exportstate.Open: journal_mode: %v", err)
	}
	if err := sqlitex.ExecScript(conn, createSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("exportstate.Open: schema: %v", err)
	}
	if err := conn.Close(); err != nil {
		return nil, fmt.Errorf("exportstate.Open: init close: %v", err)
	}

	pool, err := sqlitex.Open(path, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("exportstate.Open: pool: %v", err)
	}
	return &Store{pool: pool, filer: iox.NewFiler(0)}, nil
}

// Close releases the connection pool. Any staged-but-uncommitted
// attachment buffers are left in the database for a future resume.
func (s *Store) Close() error {
	return s.pool.Close()
}

// IsDone reports whether (mailbox, record) was already fully
// exported in a prior run. Concurrent callers checking the same key
// collapse onto a single query.
func (s *Store) IsDone(mailbox int64, record int64) (bool, error) {
	key := fmt.Sprintf("%d/%d", mailbox, record)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		conn := s.pool.Get(nil)
		defer s.pool.Put(conn)

		stmt := conn.Prep(`SELECT 1 FROM Completed WHERE MailboxNumber = $m AND RecordIndex = $r;`)
		stmt.SetInt64("$m", mailbox)
		stmt.SetInt64("$r", record)
		hasRow, err := stmt.Step()
		if err != nil {
			return false, err
		}
		defer stmt.Reset()
		return hasRow, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// MarkDone records that (mailbox, record) finished export to destPath,
// and drops any staged attachment buffers for it.
func (s *Store) MarkDone(mailbox, record int64, destPath string) error {
	conn := s.pool.Get(nil)
	defer s.pool.Put(conn)

	stmt := conn.Prep(`INSERT OR REPLACE INTO Completed (MailboxNumber, RecordIndex, DestPath, FinishedUnix)
		VALUES ($m, $r, $path, $now);`)
	stmt.SetInt64("$m", mailbox)
	stmt.SetInt64("$r", record)
	stmt.SetText("$path", destPath)
	stmt.SetInt64("$now", time.Now().Unix())
	if _, err := stmt.Step(); err != nil {
		return err
	}

	del := conn.Prep(`DELETE FROM Staging WHERE MailboxNumber = $m AND RecordIndex = $r;`)
	del.SetInt64("$m", mailbox)
	del.SetInt64("$r", record)
	_, err := del.Step()
	return err
}

// StageAttachment copies an attachment's bytes into an iox.BufferFile,
// then reads the buffered content back into memory in full and writes
// it to Staging as one blob.
func (s *Store) StageAttachment(mailbox, record int64, attachIndex int64, r io.Reader) error {
	buf := s.filer.BufferFile(0)
	defer buf.Close()

	if _, err := io.Copy(buf, r); err != nil {
		return fmt.Errorf("exportstate.StageAttachment: buffer: %v", err)
	}
	if _, err := buf.Seek(0, io.SeekStart); err != nil {
		return err
	}
	content, err := io.ReadAll(buf)
	if err != nil {
		return err
	}

	conn := s.pool.Get(nil)
	defer s.pool.Put(conn)

	stmt := conn.Prep(`INSERT OR REPLACE INTO Staging (MailboxNumber, RecordIndex, AttachIndex, Content)
		VALUES ($m, $r, $a, $content);`)
	stmt.SetInt64("$m", mailbox)
	stmt.SetInt64("$r", record)
	stmt.SetInt64("$a", attachIndex)
	stmt.SetBytes("$content", content)
	_, err = stmt.Step()
	return err
}

// StagedAttachment returns a previously staged attachment's bytes, or
// ok=false if none is staged for this key.
func (s *Store) StagedAttachment(mailbox, record, attachIndex int64) (data []byte, ok bool, err error) {
	conn := s.pool.Get(nil)
	defer s.pool.Put(conn)

	stmt := conn.Prep(`SELECT Content FROM Staging WHERE MailboxNumber = $m AND RecordIndex = $r AND AttachIndex = $a;`)
	stmt.SetInt64("$m", mailbox)
	stmt.SetInt64("$r", record)
	stmt.SetInt64("$a", attachIndex)
	hasRow, err := stmt.Step()
	if err != nil {
		return nil, false, err
	}
	if !hasRow {
		return nil, false, nil
	}
	content := make([]byte, stmt.GetLen("Content"))
	stmt.GetBytes("Content", content)
	return content, true, nil
}
