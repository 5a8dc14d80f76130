// Package erc is the EDB extraction core (§4.5-§4.6): it turns one ESE
// message row, plus its mailbox's attachment table and folder index,
// into the normalized record.Message the rest of the pipeline consumes.
package erc

import (
	"bufio"
	"bytes"
	"strings"
	"time"

	"github.com/exchrecover/edbcore/email"
	"github.com/exchrecover/edbcore/internal/ese"
	"github.com/exchrecover/edbcore/internal/lzxpress"
	"github.com/exchrecover/edbcore/internal/mapiblob"
	"github.com/exchrecover/edbcore/internal/mapitime"
	"github.com/exchrecover/edbcore/internal/record"
	"github.com/exchrecover/edbcore/third_party/imf"
)

// AttachmentSource gives ExtractMessage access to a mailbox's
// Attachment_<n> table, pre-indexed by Inid and by MessageDocumentId so
// a single row extraction never re-scans the whole table.
type AttachmentSource struct {
	Table           ese.Table
	Columns         map[string]int
	ByInid          map[int]int   // Inid -> row index
	ByDocumentID    map[int64]int // MessageDocumentId -> row index (fallback path)
}

// NewAttachmentSource builds the Inid/MessageDocumentId indexes for one
// Attachment table, matching the reference extractor's per-call index
// build but hoisted so a whole mailbox only pays for it once.
func NewAttachmentSource(table ese.Table) *AttachmentSource {
	cols := ese.ColumnIndex(table)
	src := &AttachmentSource{
		Table:        table,
		Columns:      cols,
		ByInid:       make(map[int]int),
		ByDocumentID: make(map[int64]int),
	}
	for i := 0; i < table.RecordCount(); i++ {
		rec, ok := table.Record(i)
		if !ok {
			continue
		}
		if inid, ok := getInt(rec, cols, "Inid"); ok {
			src.ByInid[int(inid)] = i
		}
		if docID, ok := getInt(rec, cols, "MessageDocumentId"); ok {
			src.ByDocumentID[docID] = i
		}
	}
	return src
}

// Options configures field-level fallbacks that depend on the
// mailbox being exported, mirroring EmailExtractor.__init__.
type Options struct {
	MailboxOwnerName string
	MailboxEmail     string
	HeadersOnly      bool
}

// ExtractMessage builds a record.Message from one row of a
// Message_<mailbox> table, following the step order of §4.5. The
// caller resolves FolderID to a display path separately via
// FolderIndex.Path, since that mapping is shared across every message
// in the folder rather than being per-row state.
func ExtractMessage(rec ese.Record, cols map[string]int, recIdx int64, attach *AttachmentSource, opts Options) record.Message {
	msg := record.Message{RecordIndex: recIdx}

	if fid, ok := getBytes(rec, cols, "FolderId"); ok {
		msg.FolderID = append([]byte(nil), fid...)
	}

	propBlob, _ := getBytes(rec, cols, "PropertyBlob")

	if t, ok := getFiletime(rec, cols, "DateReceived"); ok {
		msg.DateReceived, msg.DateReceivedOK = t, true
	}
	if t, ok := getFiletime(rec, cols, "DateSent"); ok {
		msg.DateSent, msg.DateSentOK = t, true
	}
	if t, ok := getFiletime(rec, cols, "DateCreated"); ok {
		msg.DateCreated, msg.DateCreatedOK = t, true
	}
	if t, ok := getFiletime(rec, cols, "LastModificationTime"); ok {
		msg.DateLastModified, msg.DateLastModOK = t, true
	}

	msg.IsRead = getBool(rec, cols, "IsRead")
	msg.IsHidden = getBool(rec, cols, "IsHidden")
	msg.HasAttachments = getBool(rec, cols, "HasAttachments")
	if n, ok := getInt(rec, cols, "Importance"); ok {
		msg.Importance = record.Importance(n)
	} else {
		msg.Importance = record.ImportanceNormal
	}
	if n, ok := getInt(rec, cols, "Sensitivity"); ok {
		msg.Sensitivity = record.Sensitivity(n)
	}

	if raw, ok := getBytes(rec, cols, "MessageClass"); ok {
		msg.MessageClass = decodeMessageClass(raw)
	}
	if msg.MessageClass == "" {
		msg.MessageClass = "IPM.Note"
	}

	if len(propBlob) > 0 {
		msg.SenderName = mapiblob.ExtractSender(propBlob)
		msg.SenderEmail = mapiblob.ExtractSenderEmail(propBlob)
		msg.MessageID = mapiblob.ExtractMessageID(propBlob)
	}

	if displayTo, ok := getBytes(rec, cols, "DisplayTo"); ok && len(displayTo) > 0 {
		if name := extractRecipientFromDisplayTo(displayTo); name != "" {
			msg.To = append(msg.To, record.Recipient{
				DisplayName: name,
				SMTPAddress: placeholderAddress(name),
				Kind:        record.RecipientTo,
			})
		}
	}

	var bodyText string
	if nativeBody, ok := getLongValue(rec, cols, "NativeBody"); ok && len(nativeBody) >= 7 {
		msg.BodyHTML, bodyText = extractBody(nativeBody)
		msg.BodyText = bodyText
	}

	if bodyText != "" {
		if from, to, ok := parseRFC822HeaderOverride(bodyText); ok {
			if from.name != "" {
				msg.SenderName = from.name
			}
			if from.email != "" {
				msg.SenderEmail = from.email
			}
			if to != "" && len(msg.To) == 0 {
				msg.To = append(msg.To, record.Recipient{DisplayName: to, Kind: record.RecipientTo})
			}
		}
	}

	if msg.SenderName == "" && opts.MailboxOwnerName != "" {
		msg.SenderName = opts.MailboxOwnerName
	}

	if len(propBlob) > 0 {
		msg.Subject = mapiblob.ExtractSubject(propBlob, msg.SenderName)
	}

	if msg.SenderName == "" && msg.SenderEmail == "" && opts.MailboxEmail != "" {
		msg.SenderEmail = opts.MailboxEmail
	}

	// A sender/recipient equal to the subject (case-insensitively) is a
	// marker misidentification, not a real field (§4.5 step 3).
	if msg.Subject != "" {
		lowerSubject := strings.ToLower(msg.Subject)
		if strings.ToLower(msg.SenderName) == lowerSubject {
			msg.SenderName = ""
		}
		for i := range msg.To {
			if strings.ToLower(msg.To[i].DisplayName) == lowerSubject {
				msg.To[i].DisplayName = ""
			}
		}
	}

	if msg.BodyText == "" && len(propBlob) > 0 {
		msg.BodyText = extractBodyFromPropertyBlob(propBlob)
	}

	if !opts.HeadersOnly && msg.HasAttachments && attach != nil {
		var subID int64
		if docID, ok := getInt(rec, cols, "MessageDocumentId"); ok {
			subID = docID
		}
		subBlob, _ := getBytes(rec, cols, "SubobjectsBlob")
		msg.Attachments = extractAttachments(subBlob, subID, attach)
	}

	if IsCalendarItem(msg.MessageClass) {
		msg.Event = ExtractEvent(propBlob, msg.DateSent, msg.DateSentOK, opts.MailboxOwnerName, opts.MailboxEmail)
	} else if IsContactItem(msg.MessageClass) {
		msg.Contact = ExtractContact(propBlob)
	}

	return msg
}

type fromField struct {
	name, email string
}

// parseRFC822HeaderOverride looks for a recognizable RFC 5322 header
// block within the first 50 lines of bodyText and, if found, returns
// its From/To fields (§4.5 step 5: Exchange sometimes preserves
// original Internet headers verbatim inside the body).
func parseRFC822HeaderOverride(bodyText string) (fromField, string, bool) {
	lines := strings.SplitN(bodyText, "\n", 51)
	if len(lines) > 50 {
		lines = lines[:50]
	}
	candidate := strings.Join(lines, "\n")

	r := imf.NewReader(bufio.NewReader(strings.NewReader(candidate + "\r\n\r\n")))
	hdr, err := r.ReadMIMEHeader()
	if err != nil {
		return fromField{}, "", false
	}

	fromRaw := hdr.Get(email.CanonicalKey([]byte("From")))
	toRaw := hdr.Get(email.CanonicalKey([]byte("To")))
	if fromRaw == nil && toRaw == nil {
		return fromField{}, "", false
	}

	var from fromField
	if fromRaw != nil {
		from.name, from.email = splitDisplayAndAddress(string(fromRaw))
	}
	to := ""
	if toRaw != nil {
		to = string(toRaw)
	}
	return from, to, true
}

// splitDisplayAndAddress extracts "Name" and "addr" out of a
// `Name <addr>` or bare `addr` header value without pulling in the full
// address-list grammar (which is reserved for outbound formatting).
func splitDisplayAndAddress(value string) (name, addr string) {
	value = strings.TrimSpace(value)
	if i := strings.IndexByte(value, '<'); i >= 0 {
		if j := strings.IndexByte(value[i:], '>'); j >= 0 {
			addr = strings.TrimSpace(value[i+1 : i+j])
			name = strings.Trim(strings.TrimSpace(value[:i]), "\"")
			return name, addr
		}
	}
	if strings.Contains(value, "@") {
		return "", value
	}
	return value, ""
}

func placeholderAddress(name string) string {
	clean := strings.ReplaceAll(strings.ToLower(name), " ", "")
	if clean == "" {
		return ""
	}
	return clean + "@unknown"
}

// extractRecipientFromDisplayTo LZXPRESS-decodes and UTF-16LE-decodes
// DisplayTo, then strips AD-style "/O=.../OU=.../CN=..." path segments,
// returning the last segment that looks like a plain display name.
func extractRecipientFromDisplayTo(raw []byte) string {
	decompressed := lzxpress.Decompress(raw)
	text := decodeText(decompressed)
	text = strings.Trim(text, "\x00 \t\r\n")
	if text == "" {
		return ""
	}

	parts := strings.Split(text, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			continue
		}
		upper := strings.ToUpper(p)
		if strings.HasPrefix(upper, "O=") || strings.HasPrefix(upper, "OU=") || strings.HasPrefix(upper, "CN=") {
			continue
		}
		if strings.Contains(p, "=") {
			continue
		}
		return p
	}
	return ""
}

// extractBody LZXPRESS-decodes nativeBody and, when the result looks
// like HTML, returns it as both the HTML body and a stripped-down
// plain-text rendering; otherwise it is treated as plain text directly.
func extractBody(nativeBody []byte) (html, text string) {
	decompressed := lzxpress.Decompress(nativeBody)
	if len(decompressed) == 0 {
		return "", ""
	}

	decoded := decodeText(decompressed)
	if looksLikeHTML(decoded) {
		return decoded, stripHTMLTags(decoded)
	}
	return "", decoded
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body") || strings.Contains(lower, "<p>") || strings.Contains(lower, "<div")
}

// stripHTMLTags is a conservative angle-bracket stripper used only as
// the plain-text sibling of an HTML native body; package textconv holds
// a tokenizer-based HTML-to-text conversion, which this package does not
// call.
func stripHTMLTags(s string) string {
	var out strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			out.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(out.String()), " ")
}

// extractBodyFromPropertyBlob is the §4.5 step 4 fallback: scan for
// printable runs of at least 10 bytes and join up to 5 of them with
// newlines.
func extractBodyFromPropertyBlob(blob []byte) string {
	var runs []string
	var cur []byte
	flush := func() {
		if len(cur) >= 10 {
			runs = append(runs, string(cur))
		}
		cur = nil
	}
	for _, b := range blob {
		if b >= 0x20 && b <= 0x7e {
			cur = append(cur, b)
		} else {
			flush()
		}
	}
	flush()

	if len(runs) > 5 {
		runs = runs[:5]
	}
	return strings.Join(runs, "\n")
}

func extractAttachments(subobjectsBlob []byte, documentID int64, src *AttachmentSource) []record.Attachment {
	var rowIndexes []int

	if inids, ok := ParseSubobjects(subobjectsBlob); ok {
		for _, inid := range inids {
			if idx, ok := src.ByInid[inid]; ok {
				rowIndexes = append(rowIndexes, idx)
			}
		}
	} else if idx, ok := src.ByDocumentID[documentID]; ok {
		rowIndexes = append(rowIndexes, idx)
	}

	seenNames := make(map[string]bool)
	var out []record.Attachment
	for _, idx := range rowIndexes {
		rec, ok := src.Table.Record(idx)
		if !ok {
			continue
		}
		content, ok := getBytes(rec, src.Columns, "Content")
		if !ok || len(content) == 0 {
			continue
		}
		if len(content) == 4 {
			if lv, ok := getLongValue(rec, src.Columns, "Content"); ok && len(lv) > 0 {
				content = lv
			}
		}

		attBlob, _ := getBytes(rec, src.Columns, "PropertyBlob")
		filename := extractAttachmentFilename(attBlob)
		if filename == "" {
			filename = "attachment.bin"
		}
		if seenNames[filename] {
			continue
		}
		seenNames[filename] = true

		contentType := extractContentType(attBlob)
		out = append(out, record.Attachment{
			Filename:    filename,
			ContentType: contentType,
			Data:        append([]byte(nil), content...),
		})
	}
	return out
}

var attachmentExtensions = []string{
	".txt", ".xml", ".doc", ".docx", ".pdf", ".jpg",
	".png", ".xlsx", ".xls", ".zip", ".eml", ".msg",
}

func extractAttachmentFilename(blob []byte) string {
	if len(blob) == 0 {
		return ""
	}
	lower := bytes.ToLower(blob)
	for _, ext := range attachmentExtensions {
		idx := bytes.Index(lower, []byte(ext))
		if idx < 0 {
			continue
		}
		start := idx
		for start > 0 && blob[start-1] >= 0x20 && blob[start-1] < 0x7f {
			start--
		}
		filename := blob[start : idx+len(ext)]
		if len(filename) > len(ext) {
			return string(filename)
		}
	}
	return ""
}

var attachmentMIMETypes = [][2]string{
	{"text/plain", "text/plain"},
	{"text/html", "text/html"},
	{"application/pdf", "application/pdf"},
	{"image/jpeg", "image/jpeg"},
	{"image/png", "image/png"},
}

func extractContentType(blob []byte) string {
	for _, pair := range attachmentMIMETypes {
		if bytes.Contains(blob, []byte(pair[0])) {
			return pair[1]
		}
	}
	return "application/octet-stream"
}

func getFiletime(rec ese.Record, cols map[string]int, name string) (time.Time, bool) {
	idx, ok := cols[name]
	if !ok {
		return time.Time{}, false
	}
	raw, ok := rec.Raw(idx)
	if !ok || len(raw) != 8 {
		return time.Time{}, false
	}
	ft := leUint64(raw)
	return mapitime.OptionalTime(ft)
}

func getBool(rec ese.Record, cols map[string]int, name string) bool {
	raw, ok := getBytes(rec, cols, name)
	if !ok || len(raw) == 0 {
		return false
	}
	for _, b := range raw {
		if b != 0 {
			return true
		}
	}
	return false
}

func getLongValue(rec ese.Record, cols map[string]int, name string) ([]byte, bool) {
	idx, ok := cols[name]
	if !ok {
		return nil, false
	}
	if !rec.IsLongValue(idx) {
		return nil, false
	}
	return rec.LongValue(idx)
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
