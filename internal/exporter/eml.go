// Package exporter implements the textual export formats (C15): EML
// (RFC 5322), ICS (RFC 5545), and VCF (vCard 3.0), built directly from
// the normalized record (package record).
package exporter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"strconv"
	"strings"
	"time"

	"github.com/exchrecover/edbcore/email"
	"github.com/exchrecover/edbcore/internal/record"
)

const boundaryPrefix = "edbrecover-boundary"

// EML renders msg as an RFC 5322 message. Attachments trigger a
// multipart/mixed envelope; a message with both bodies but no
// attachments is multipart/alternative; otherwise it is single-part.
func EML(msg record.Message) []byte {
	hasText := strings.TrimSpace(msg.BodyText) != ""
	hasHTML := strings.TrimSpace(msg.BodyHTML) != ""
	hasAttach := len(msg.Attachments) > 0

	h := buildHeaders(msg)
	h.Add("MIME-Version", []byte("1.0"))

	var buf bytes.Buffer

	switch {
	case hasAttach:
		boundary := boundaryPrefix + "-mixed"
		h.Add("Content-Type", []byte(fmt.Sprintf("multipart/mixed; boundary=%q", boundary)))
		h.Encode(&buf)
		writeBoundaryPart(&buf, boundary, false)
		writeBody(&buf, msg, hasText, hasHTML)
		for _, a := range msg.Attachments {
			writeBoundaryPart(&buf, boundary, false)
			writeAttachment(&buf, a)
		}
		writeBoundaryPart(&buf, boundary, true)

	case hasText && hasHTML:
		boundary := boundaryPrefix + "-alt"
		h.Add("Content-Type", []byte(fmt.Sprintf("multipart/alternative; boundary=%q", boundary)))
		h.Encode(&buf)
		writeBoundaryPart(&buf, boundary, false)
		writeTextPart(&buf, msg.BodyText, "plain")
		writeBoundaryPart(&buf, boundary, false)
		writeTextPart(&buf, msg.BodyHTML, "html")
		writeBoundaryPart(&buf, boundary, true)

	case hasHTML:
		h.Encode(&buf)
		writeTextPart(&buf, msg.BodyHTML, "html")

	case hasText:
		h.Encode(&buf)
		writeTextPart(&buf, msg.BodyText, "plain")

	default:
		h.Encode(&buf)
		body := msg.Subject
		if body == "" {
			body = "(No content)"
		}
		writeTextPart(&buf, body, "plain")
	}

	return buf.Bytes()
}

// buildHeaders assembles the envelope headers shared by every MIME
// shape EML produces; the caller adds Content-Type/MIME-Version before
// encoding, so the whole header block folds and terminates as one unit.
func buildHeaders(msg record.Message) *email.Header {
	h := &email.Header{}

	h.Add("From", []byte(formatAddr(msg.SenderName, msg.SenderEmail)))

	if to := formatAddrList(msg.To); to != "" {
		h.Add("To", []byte(to))
	}
	if cc := formatAddrList(msg.CC); cc != "" {
		h.Add("CC", []byte(cc))
	}

	subject := msg.Subject
	if subject == "" {
		subject = "(No Subject)"
	}
	h.Add("Subject", []byte(mime.QEncoding.Encode("utf-8", subject)))

	sentAt := msg.DateSent
	if !msg.DateSentOK {
		sentAt = msg.DateReceived
	}
	if msg.DateSentOK || msg.DateReceivedOK {
		h.Add("Date", []byte(sentAt.Format(time.RFC1123Z)))
	}

	if msg.MessageID != "" {
		h.Add("Message-ID", []byte(msg.MessageID))
	}

	h.Add("X-Priority", []byte(importanceXPriority(msg.Importance)))
	h.Add("X-MS-Has-Attach", []byte(yesNo(msg.HasAttachments)))
	h.Add("X-MS-Exchange-MessageClass", []byte(nonEmptyClass(msg.MessageClass)))
	h.Add(email.CanonicalKey([]byte("x-record-index")), []byte(strconv.FormatInt(msg.RecordIndex, 10)))

	switch msg.Importance {
	case record.ImportanceHigh:
		h.Add("Importance", []byte("high"))
	case record.ImportanceLow:
		h.Add("Importance", []byte("low"))
	}
	if msg.Sensitivity != record.SensitivityNormal {
		h.Add("Sensitivity", []byte(sensitivityHeader(msg.Sensitivity)))
	}

	return h
}

func writeBoundaryPart(buf *bytes.Buffer, boundary string, closing bool) {
	if closing {
		fmt.Fprintf(buf, "--%s--\r\n", boundary)
		return
	}
	fmt.Fprintf(buf, "--%s\r\n", boundary)
}

func writeBody(buf *bytes.Buffer, msg record.Message, hasText, hasHTML bool) {
	switch {
	case hasText && hasHTML:
		altBoundary := boundaryPrefix + "-alt-body"
		fmt.Fprintf(buf, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", altBoundary)
		writeBoundaryPart(buf, altBoundary, false)
		writeTextPart(buf, msg.BodyText, "plain")
		writeBoundaryPart(buf, altBoundary, false)
		writeTextPart(buf, msg.BodyHTML, "html")
		writeBoundaryPart(buf, altBoundary, true)
	case hasHTML:
		writeTextPart(buf, msg.BodyHTML, "html")
	case hasText:
		writeTextPart(buf, msg.BodyText, "plain")
	default:
		writeTextPart(buf, "(No content)", "plain")
	}
}

func writeTextPart(buf *bytes.Buffer, body, subtype string) {
	fmt.Fprintf(buf, "Content-Type: text/%s; charset=\"utf-8\"\r\n", subtype)
	if isASCII(body) {
		buf.WriteString("Content-Transfer-Encoding: 7bit\r\n\r\n")
		buf.WriteString(body)
		buf.WriteString("\r\n")
		return
	}
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
	qp := quotedprintable.NewWriter(buf)
	qp.Write([]byte(body))
	qp.Close()
	buf.WriteString("\r\n")
}

func writeAttachment(buf *bytes.Buffer, a record.Attachment) {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	fmt.Fprintf(buf, "Content-Type: %s\r\n", contentType)
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	disposition := "attachment"
	if a.IsInline {
		disposition = "inline"
	}
	fmt.Fprintf(buf, "Content-Disposition: %s; filename=\"%s\"\r\n", disposition, a.Filename)
	if a.ContentID != "" {
		fmt.Fprintf(buf, "Content-ID: <%s>\r\n", a.ContentID)
	}
	buf.WriteString("\r\n")

	enc := base64.StdEncoding
	data := a.Data
	const lineLen = 57 // 57 raw bytes -> 76 base64 chars per RFC 2045 line limit
	for len(data) > 0 {
		n := lineLen
		if n > len(data) {
			n = len(data)
		}
		buf.WriteString(enc.EncodeToString(data[:n]))
		buf.WriteString("\r\n")
		data = data[n:]
	}
}

func formatAddr(name, addr string) string {
	switch {
	case name != "" && addr != "":
		return mime.QEncoding.Encode("utf-8", name) + " <" + addr + ">"
	case addr != "":
		return addr
	case name != "":
		return name
	default:
		return "unknown@unknown"
	}
}

func formatAddrList(recipients []record.Recipient) string {
	parts := make([]string, 0, len(recipients))
	for _, r := range recipients {
		parts = append(parts, formatAddr(r.DisplayName, r.SMTPAddress))
	}
	return strings.Join(parts, ", ")
}

func importanceXPriority(imp record.Importance) string {
	switch imp {
	case record.ImportanceLow:
		return "5"
	case record.ImportanceHigh:
		return "1"
	default:
		return "3"
	}
}

func sensitivityHeader(s record.Sensitivity) string {
	switch s {
	case record.SensitivityPersonal:
		return "Personal"
	case record.SensitivityPrivate:
		return "Private"
	case record.SensitivityConfidential:
		return "Company-Confidential"
	default:
		return "Normal"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func nonEmptyClass(s string) string {
	if s == "" {
		return "IPM.Note"
	}
	return s
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
