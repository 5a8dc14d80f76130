// Package mapiblob locates subject/sender/recipient/Message-ID text
// inside a MAPI PropertyBlob using the marker heuristics described in
// §4.4: Exchange's PropertyBlob has no public schema, so recovery tools
// recognize the "M"/"K" length-prefixed run convention empirically
// rather than parsing a real property table.
package mapiblob

import (
	"bytes"
	"strings"
)

var skipSenderPatterns = [][]byte{
	[]byte("Junk"), []byte("Inbox"), []byte("Sent"), []byte("Deleted"), []byte("Drafts"),
	[]byte("Microsoft"), []byte("Exchange"), []byte("System"), []byte("Recovery"),
	[]byte("Calendar"), []byte("Contacts"), []byte("Tasks"), []byte("/O="), []byte("/OU="),
	[]byte("CN="), []byte("Rule"), []byte("http"), []byte("schema"), []byte("IPM."),
}

// ExtractSender scans blob for an "M" marker followed by a length in
// [5,40] and a run of printable letters/spaces, rejecting well-known
// system tokens. It returns the first accepted candidate, or "".
func ExtractSender(blob []byte) string {
	if len(blob) < 50 {
		return ""
	}
	for i := 0; i < len(blob)-10; i++ {
		if blob[i] != 'M' {
			continue
		}
		length := int(blob[i+1])
		if length < 5 || length > 40 {
			continue
		}
		if i+2+length > len(blob) {
			continue
		}
		text := blob[i+2 : i+2+length]
		if len(text) == 0 {
			continue
		}
		if bytes.IndexByte(text, '@') >= 0 {
			continue
		}
		if text[0] == '<' {
			continue
		}
		if containsAny(text, skipSenderPatterns) {
			continue
		}

		printable := 0
		for _, b := range text {
			if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == ' ' {
				printable++
			}
		}
		if printable < int(float64(length)*0.7) {
			continue
		}

		name := strings.TrimSpace(asciiOf(text))
		if len(name) < 3 {
			continue
		}
		if isAlphaAndSpace(name) {
			return name
		}
	}
	return ""
}

// ExtractSenderEmail scans blob for an "M" marker followed by a length
// in [10,60] whose content looks like an email address.
func ExtractSenderEmail(blob []byte) string {
	if len(blob) < 50 {
		return ""
	}
	for i := 0; i < len(blob)-10; i++ {
		if blob[i] != 'M' {
			continue
		}
		length := int(blob[i+1])
		if length < 10 || length > 60 {
			continue
		}
		if i+2+length > len(blob) {
			continue
		}
		text := blob[i+2 : i+2+length]
		if bytes.IndexByte(text, '@') < 0 {
			continue
		}
		if len(text) > 0 && text[0] == '<' {
			continue
		}
		email := strings.TrimSpace(asciiOf(text))
		at := strings.LastIndexByte(email, '@')
		if at < 0 || strings.IndexByte(email[at+1:], '.') < 0 {
			continue
		}
		email = strings.TrimSuffix(email, "audit")
		return email
	}
	return ""
}

var subjectSkipWords = []string{
	"admin", "exchange", "recipient", "fydib",
	"pdlt", "group", "index", "system", "mailbox",
	"/o=", "/ou=", "cn=", "ex:", "http",
}

// ExtractSubject locates the byte immediately following the first
// occurrence of "<suffix-of-senderHint>M" (trying progressively shorter
// suffixes of senderHint, and stopping at the first suffix found in the
// blob) and decodes the length-prefixed run that follows. If
// senderHint yields nothing, it falls back to scanning all
// M/K length-prefixed runs for the first non-system printable string.
func ExtractSubject(blob []byte, senderHint string) string {
	if len(blob) < 50 {
		return ""
	}

	if len(senderHint) >= 3 {
		senderBytes := []byte(asciiLossy(senderHint))
		maxSuffix := len(senderBytes)
		minSuffix := len(senderBytes) - 6
		if minSuffix < 2 {
			minSuffix = 2
		}
		for suffixLen := maxSuffix; suffixLen > minSuffix; suffixLen-- {
			pattern := append(append([]byte(nil), senderBytes[len(senderBytes)-suffixLen:]...), 'M')
			pos := bytes.Index(blob, pattern)
			if pos >= 0 {
				start := pos + len(pattern)
				if result := extractSubjectAt(blob, start); result != "" {
					return result
				}
				break
			}
		}
	}

	senderLower := strings.ToLower(asciiLossy(senderHint))
	for i := 0; i < len(blob)-5; i++ {
		if blob[i] != 'M' && blob[i] != 'K' {
			continue
		}
		length := int(blob[i+1])
		if length < 2 || length > 100 {
			continue
		}
		if i+2+length > len(blob) {
			continue
		}
		potential := blob[i+2 : i+2+length]
		if !allPrintable(potential) {
			continue
		}
		lower := strings.ToLower(string(potential))
		if containsAnyString(lower, subjectSkipWords) {
			continue
		}
		if bytes.IndexByte(potential, '@') >= 0 || (len(potential) > 0 && potential[0] == '<') {
			continue
		}
		if senderLower != "" && strings.TrimSpace(lower) == strings.TrimSpace(senderLower) {
			continue
		}
		if len(potential) >= 2 {
			return string(potential)
		}
	}
	return ""
}

// extractSubjectAt decodes the length-prefixed run starting at pos,
// choosing the repeat-encoding decoder when the content matches its
// signature.
func extractSubjectAt(blob []byte, pos int) string {
	if pos >= len(blob)-2 {
		return ""
	}
	length := int(blob[pos])
	if length < 2 || length > 100 {
		return ""
	}
	if pos+1+length > len(blob) {
		return ""
	}
	subjectData := blob[pos : pos+1+length]
	content := subjectData[1:]

	if looksLikeRepeatEncoding(content) {
		return DecodeRepeat(subjectData)
	}
	if len(content) > 0 && content[0] == '<' {
		return ""
	}
	return extractPrintableText(content)
}

func extractPrintableText(data []byte) string {
	cleaned := make([]byte, 0, len(data))
	for _, b := range data {
		if b != 0 && b >= 32 && b < 127 {
			cleaned = append(cleaned, b)
		}
	}
	return string(cleaned)
}

func looksLikeRepeatEncoding(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	count := 0
	i := 0
	for i < len(data)-2 {
		if data[i] > 32 && data[i] <= 126 && data[i+1] == 0x00 && data[i+2] == 0x00 {
			count++
			i += 3
		} else {
			i++
		}
	}
	return count >= 2
}

// DecodeRepeat decodes Exchange's repeat-encoding mini-format: the first
// byte is the expected output length, then `c 00 00` expands to `cccc`
// for printable non-space c, 0x20 is a literal space, `00 00` sequences
// are skipped, and bytes >= 0x80 begin a back-reference: look ahead up
// to 4 bytes for the next uppercase letter or digit and emit it four
// times. Output is clamped to the expected length; a failed
// back-reference never raises, it just stops contributing output.
func DecodeRepeat(data []byte) string {
	if len(data) < 2 {
		return ""
	}
	expectedLen := int(data[0])
	var out strings.Builder
	i := 1

	for i < len(data) && out.Len() < expectedLen+5 {
		b := data[i]

		if b > 0x20 && b < 0x7f && i+2 < len(data) && data[i+1] == 0x00 && data[i+2] == 0x00 {
			for k := 0; k < 4; k++ {
				out.WriteByte(b)
			}
			i += 3
			continue
		}

		if b == 0x20 {
			out.WriteByte(' ')
			i++
			continue
		}

		if b == 0x00 && i+1 < len(data) && data[i+1] == 0x00 {
			i += 2
			continue
		}

		if b >= 0x80 {
			found := false
			limit := i + 5
			if limit > len(data) {
				limit = len(data)
			}
			for k := i + 1; k < limit; k++ {
				c := data[k]
				if (c >= 0x41 && c <= 0x5a) || (c >= 0x30 && c <= 0x39) {
					for n := 0; n < 4; n++ {
						out.WriteByte(c)
					}
					i = k + 1
					found = true
					break
				}
				if c == 0x20 {
					break
				}
				if c == 0x00 && k+1 < len(data) && data[k+1] == 0x00 {
					break
				}
			}
			if !found {
				if i+1 < len(data) {
					i += 2
				} else {
					i++
				}
			}
			continue
		}

		if b < 0x20 {
			i++
			continue
		}

		if b >= 0x40 && b <= 0x7e {
			i++
			continue
		}

		i++
	}

	result := strings.Join(strings.Fields(out.String()), " ")
	if expectedLen > 0 && len(result) > expectedLen {
		result = result[:expectedLen]
	}
	return strings.TrimSpace(result)
}

// ExtractMessageID scans blob for the first `<...@...>` ASCII run.
func ExtractMessageID(blob []byte) string {
	for i := 0; i < len(blob)-20 && i >= 0; i++ {
		if blob[i] != '<' {
			continue
		}
		limit := i + 100
		if limit > len(blob) {
			limit = len(blob)
		}
		for j := i + 1; j < limit; j++ {
			if blob[j] != '>' {
				continue
			}
			potential := blob[i : j+1]
			cleaned := make([]byte, 0, len(potential))
			for _, b := range potential {
				if b != 0 {
					cleaned = append(cleaned, b)
				}
			}
			if !allASCII(cleaned) {
				break
			}
			msgID := string(cleaned)
			if strings.Contains(msgID, "@") && strings.HasPrefix(msgID, "<") && strings.HasSuffix(msgID, ">") {
				return msgID
			}
			break
		}
	}
	return ""
}

func allPrintable(data []byte) bool {
	for _, b := range data {
		if b < 32 || b > 126 {
			return false
		}
	}
	return true
}

func allASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

func containsAny(data []byte, patterns [][]byte) bool {
	for _, p := range patterns {
		if bytes.Contains(data, p) {
			return true
		}
	}
	return false
}

func containsAnyString(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func isAlphaAndSpace(s string) bool {
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == ' ') {
			return false
		}
	}
	return true
}

// asciiOf drops any non 7-bit-ASCII byte rather than erroring, matching
// the source's errors="ignore" decode.
func asciiOf(data []byte) string {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b < 0x80 {
			out = append(out, b)
		}
	}
	return string(out)
}

// asciiLossy lower-cases nothing; it just strips non-ASCII runes from a
// Go string the same way asciiOf does for bytes, used when building a
// search pattern from a previously decoded field.
func asciiLossy(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < 0x80 {
			out = append(out, s[i])
		}
	}
	return string(out)
}
