// Package textconv reduces Exchange body content (HTML, and legacy
// 8-bit codepages) to plain UTF-8 text. No other package in this module
// calls it.
package textconv

import (
	"io"
	"log"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// HTMLToText walks parsed HTML and returns its visible text, skipping
// script/style subtrees and collapsing whitespace runs to single
// spaces the way a mail reader's "plain text view" would.
func HTMLToText(htmlBody string) string {
	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return htmlBody
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style:
				return
			case atom.Br, atom.P, atom.Div:
				buf.WriteByte(' ')
			}
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return collapseSpace(buf.String())
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// DecodeLegacy decodes body bytes declared under an 8-bit codepage
// name (as recovered from an Exchange column or an RFC 2047
// encoded-word charset) into UTF-8. An unrecognized charset name falls
// back to simplifiedchinese.HZGB2312 for the "gb2312" alias the way
// the corpus's RFC 5322 address parser does, and otherwise returns the
// input unchanged rather than failing the whole record.
func DecodeLegacy(charset string, r io.Reader) io.Reader {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		enc, err = ianaindex.MIME.Encoding(charset)
	}
	if err != nil || enc == nil {
		if strings.EqualFold(charset, "gb2312") {
			enc = simplifiedchinese.HZGB2312
		} else {
			log.Printf("textconv: no encoding for charset %q, passing through", charset)
			return r
		}
	}
	return enc.NewDecoder().Reader(r)
}
