package textconv_test

import (
	"strings"
	"testing"

	"github.com/exchrecover/edbcore/internal/textconv"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script stripped", "<p>Keep</p><script>dropMe()</script>", "Keep"},
		{"style stripped", "<style>.a{color:red}</style><p>Keep</p>", "Keep"},
		{"collapses whitespace", "<p>a\n\n  b   \t c</p>", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textconv.HTMLToText(tt.in)
			if got != tt.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeLegacyPassthroughForUnknownCharset(t *testing.T) {
	r := textconv.DecodeLegacy("totally-bogus-charset", strings.NewReader("hello"))
	buf := make([]byte, 5)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatal(err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("DecodeLegacy passthrough = %q, want %q", buf[:n], "hello")
	}
}

func TestDecodeLegacyUTF8(t *testing.T) {
	r := textconv.DecodeLegacy("utf-8", strings.NewReader("héllo"))
	var sb strings.Builder
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if sb.String() != "héllo" {
		t.Errorf("DecodeLegacy utf-8 = %q, want %q", sb.String(), "héllo")
	}
}
