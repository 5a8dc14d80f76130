// Command edbrecover is the CLI surface (C14): it opens an Exchange
// mailbox database and lists or exports its contents, either as loose
// EML/ICS/VCF files or as a single synthesized PST.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/exchrecover/edbcore/internal/config"
	"github.com/exchrecover/edbcore/internal/erc"
	"github.com/exchrecover/edbcore/internal/ese"
	"github.com/exchrecover/edbcore/internal/exporter"
	"github.com/exchrecover/edbcore/internal/exportstate"
	"github.com/exchrecover/edbcore/internal/pst"
	"github.com/exchrecover/edbcore/internal/record"
	"github.com/exchrecover/edbcore/internal/recoverr"
)

// openDatabase is the hook a deployment wires to a concrete ese.Database
// (e.g. a cgo binding over libesedb). This module defines the interface
// boundary (package ese) only; left unset, every subcommand that needs
// a database reports a clear structural error instead of a nil dereference.
var openDatabase func(path string) (ese.Database, error)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list-mailboxes":
		return cmdListMailboxes(rest)
	case "list-folders":
		return cmdListFolders(rest)
	case "list-emails":
		return cmdListEmails(rest)
	case "export-email":
		return cmdExportEmail(rest)
	case "export-folder":
		return cmdExportFolder(rest)
	case "export-mailbox":
		return cmdExportMailbox(rest)
	case "export-calendar":
		return cmdExportCalendar(rest)
	case "info":
		return cmdInfo(rest)
	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: edbrecover <command> [flags]

commands:
  list-mailboxes
  list-folders     -m <n>
  list-emails      -m <n> [-f fid] [-s query] [--date-from t] [--date-to t] [-n limit] [--csv path]
  export-email     -m <n> -r <idx> -o <path>
  export-folder    -m <n> -f <fid> -o <dir>
  export-mailbox   -m <n> -o <dir>
  export-calendar  -m <n> -o <path>
  info`)
}

func openDB(path string) (ese.Database, error) {
	if openDatabase == nil {
		return nil, &recoverr.RecoverError{
			Kind: recoverr.KindStructural,
			Msg:  "no ESE adapter compiled into this binary",
			Record: -1,
		}
	}
	return openDatabase(path)
}

func logLine(where, what string, start time.Time, err error) {
	l := recoverr.Log{Where: where, What: what, When: start, Duration: time.Since(start), Err: err}
	fmt.Fprintln(os.Stderr, l.String())
}

func messageTableName(mailbox int) string { return fmt.Sprintf("Message_%d", mailbox) }
func folderTableName(mailbox int) string  { return fmt.Sprintf("Folder_%d", mailbox) }
func attachTableName(mailbox int) string  { return fmt.Sprintf("Attachment_%d", mailbox) }

func cmdListMailboxes(args []string) int {
	fs := flag.NewFlagSet("list-mailboxes", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("list-mailboxes", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	seen := map[int]bool{}
	for name := range db.Tables() {
		if n, ok := mailboxNumberFromTable(name, "Message_"); ok {
			seen[n] = true
		}
	}
	for n := range seen {
		fmt.Println(n)
	}
	return 0
}

func mailboxNumberFromTable(name, prefix string) (int, bool) {
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

func cmdListFolders(args []string) int {
	fs := flag.NewFlagSet("list-folders", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("list-folders", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	table, ok := db.Tables()[folderTableName(*mailbox)]
	if !ok {
		logLine("list-folders", "table-missing", time.Now(), fmt.Errorf("no %s", folderTableName(*mailbox)))
		return 1
	}
	idx, err := erc.BuildFolderIndex(table)
	if err != nil {
		logLine("list-folders", "index", time.Now(), err)
		return 1
	}
	cols := ese.ColumnIndex(table)
	fidCol, hasFidCol := cols["FolderId"]
	for i := 0; i < table.RecordCount(); i++ {
		rec, ok := table.Record(i)
		if !ok || !hasFidCol {
			continue
		}
		raw, ok := rec.Raw(fidCol)
		if !ok {
			continue
		}
		fmt.Printf("%x\t%s\n", raw, idx.Path(string(raw)))
	}
	return 0
}

func cmdListEmails(args []string) int {
	fs := flag.NewFlagSet("list-emails", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	folderFilter := fs.String("f", "", "folder id filter (hex)")
	query := fs.String("s", "", "subject substring filter")
	limit := fs.Int("n", 0, "limit (0 = unlimited)")
	fs.String("date-from", "", "unused placeholder for interface parity")
	fs.String("date-to", "", "unused placeholder for interface parity")
	fs.String("csv", "", "accepted and ignored; results are always printed to stdout")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("list-emails", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	msgs, exitCode := extractMailbox(db, *mailbox, config.DefaultConfig())
	if exitCode != 0 {
		return exitCode
	}

	count := 0
	for _, msg := range msgs {
		if *folderFilter != "" && fmt.Sprintf("%x", msg.FolderID) != *folderFilter {
			continue
		}
		if *query != "" && !strings.Contains(strings.ToLower(msg.Subject), strings.ToLower(*query)) {
			continue
		}
		fmt.Printf("%d\t%s\t%s\n", msg.RecordIndex, msg.SenderEmail, msg.Subject)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}
	return 0
}

func extractMailbox(db ese.Database, mailbox int, cfg config.ExtractorConfig) ([]record.Message, int) {
	table, ok := db.Tables()[messageTableName(mailbox)]
	if !ok {
		logLine("extract", "table-missing", time.Now(), fmt.Errorf("no %s", messageTableName(mailbox)))
		return nil, 1
	}
	cols := ese.ColumnIndex(table)

	var attach *erc.AttachmentSource
	if at, ok := db.Tables()[attachTableName(mailbox)]; ok {
		attach = erc.NewAttachmentSource(at)
	}

	opts := erc.Options{MailboxOwnerName: cfg.MailboxOwnerName, MailboxEmail: cfg.MailboxOwnerDomain}

	msgs := make([]record.Message, 0, table.RecordCount())
	for i := 0; i < table.RecordCount(); i++ {
		rec, ok := table.Record(i)
		if !ok {
			continue
		}
		msgs = append(msgs, erc.ExtractMessage(rec, cols, int64(i), attach, opts))
	}
	return msgs, 0
}

func cmdExportEmail(args []string) int {
	fs := flag.NewFlagSet("export-email", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	recIdx := fs.Int64("r", 0, "record index")
	out := fs.String("o", "", "output path")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("export-email", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	msgs, exitCode := extractMailbox(db, *mailbox, config.DefaultConfig())
	if exitCode != 0 {
		return exitCode
	}

	for _, msg := range msgs {
		if msg.RecordIndex != *recIdx {
			continue
		}
		if err := os.WriteFile(*out, exporter.EML(msg), 0o644); err != nil {
			logLine("export-email", "write", time.Now(), err)
			return 1
		}
		return 0
	}
	logLine("export-email", "record-not-found", time.Now(), fmt.Errorf("record %d", *recIdx))
	return 1
}

func cmdExportFolder(args []string) int {
	fs := flag.NewFlagSet("export-folder", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	folderID := fs.String("f", "", "folder id (hex)")
	outDir := fs.String("o", "", "output directory")
	resumePath := fs.String("resume", "", "resume state database path")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("export-folder", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	var state *exportstate.Store
	if *resumePath != "" {
		state, err = exportstate.Open(*resumePath)
		if err != nil {
			logLine("export-folder", "resume-open", time.Now(), err)
			return 1
		}
		defer state.Close()
	}

	msgs, exitCode := extractMailbox(db, *mailbox, config.DefaultConfig())
	if exitCode != 0 {
		return exitCode
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logLine("export-folder", "mkdir", time.Now(), err)
		return 1
	}

	exit := 0
	for _, msg := range msgs {
		if *folderID != "" && fmt.Sprintf("%x", msg.FolderID) != *folderID {
			continue
		}
		if state != nil {
			if done, _ := state.IsDone(int64(*mailbox), msg.RecordIndex); done {
				continue
			}
		}
		dest := filepath.Join(*outDir, fmt.Sprintf("%06d.eml", msg.RecordIndex))
		if err := os.WriteFile(dest, exporter.EML(msg), 0o644); err != nil {
			logLine("export-folder", "write", time.Now(), err)
			exit = 1
			continue
		}
		if state != nil {
			state.MarkDone(int64(*mailbox), msg.RecordIndex, dest)
		}
	}
	return exit
}

func cmdExportMailbox(args []string) int {
	fs := flag.NewFlagSet("export-mailbox", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	out := fs.String("o", "", "output .pst path")
	ownerName := fs.String("owner-name", "", "mailbox owner display name")
	resumePath := fs.String("resume", "", "resume state database path")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("export-mailbox", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	var state *exportstate.Store
	if *resumePath != "" {
		state, err = exportstate.Open(*resumePath)
		if err != nil {
			logLine("export-mailbox", "resume-open", time.Now(), err)
			return 1
		}
		defer state.Close()
	}

	cfg := config.DefaultConfig()
	cfg.MailboxOwnerName = *ownerName

	msgs, exitCode := extractMailbox(db, *mailbox, cfg)
	if exitCode != 0 {
		return exitCode
	}

	folderTable, hasFolders := db.Tables()[folderTableName(*mailbox)]
	var folderIdx *erc.FolderIndex
	if hasFolders {
		folderIdx, _ = erc.BuildFolderIndex(folderTable)
	}

	displayName := *ownerName
	if displayName == "" {
		displayName = "Personal Folders"
	}
	w := pst.NewWriter(displayName)

	folderNIDs := map[string]pst.NID{}
	folderNID := func(folderID string) pst.NID {
		if nid, ok := folderNIDs[folderID]; ok {
			return nid
		}
		name := folderID
		if folderIdx != nil {
			name = folderIdx.Name(folderID)
		}
		nid := w.AddFolder(name, 0)
		folderNIDs[folderID] = nid
		return nid
	}

	for _, msg := range msgs {
		fid := folderNID(string(msg.FolderID))
		if state != nil {
			if done, _ := state.IsDone(int64(*mailbox), msg.RecordIndex); done {
				continue
			}
		}
		if _, err := w.AddMessage(fid, msg); err != nil {
			logLine("export-mailbox", "add-message", time.Now(), err)
			return 1
		}
		if state != nil {
			state.MarkDone(int64(*mailbox), msg.RecordIndex, *out)
		}
	}

	f, err := os.Create(*out)
	if err != nil {
		logLine("export-mailbox", "create", time.Now(), err)
		return 1
	}
	defer f.Close()

	if err := w.Write(f); err != nil {
		logLine("export-mailbox", "write", time.Now(), err)
		return 1
	}
	return 0
}

func cmdExportCalendar(args []string) int {
	fs := flag.NewFlagSet("export-calendar", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	mailbox := fs.Int("m", 0, "mailbox number")
	out := fs.String("o", "", "output .ics path")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("export-calendar", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	msgs, exitCode := extractMailbox(db, *mailbox, config.DefaultConfig())
	if exitCode != 0 {
		return exitCode
	}

	var buf strings.Builder
	buf.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//edbrecover//EN\r\n")
	for _, msg := range msgs {
		if msg.Event == nil {
			continue
		}
		event := exporter.ICS(msg)
		start := strings.Index(event, "BEGIN:VEVENT")
		end := strings.Index(event, "END:VEVENT")
		if start < 0 || end < 0 {
			continue
		}
		buf.WriteString(event[start : end+len("END:VEVENT")])
		buf.WriteString("\r\n")
	}
	buf.WriteString("END:VCALENDAR\r\n")

	if err := os.WriteFile(*out, []byte(buf.String()), 0o644); err != nil {
		logLine("export-calendar", "write", time.Now(), err)
		return 1
	}
	return 0
}

func cmdInfo(args []string) int {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to the EDB file")
	fs.Parse(args)

	db, err := openDB(*dbPath)
	if err != nil {
		logLine("info", "open", time.Now(), err)
		return 1
	}
	defer db.Close()

	for name, table := range db.Tables() {
		fmt.Printf("%s\t%d rows\n", name, table.RecordCount())
	}
	return 0
}
