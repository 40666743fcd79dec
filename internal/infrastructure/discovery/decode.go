package discovery

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Candidate encodings tried in order when the page declares nothing usable.
// The discovery site has shipped all three over the years.
var fallbackEncodings = []encoding.Encoding{
	japanese.ShiftJIS,
	japanese.EUCJP,
	japanese.ISO2022JP,
}

// DecodeBody converts raw page bytes to UTF-8 text under character-set
// uncertainty. The hint label (from a Content-Type header) is tried first,
// then UTF-8, then the Japanese legacy encodings. When nothing decodes
// cleanly the bytes are force-read as UTF-8 with invalid sequences
// discarded. Never fails; a degraded string beats a dead run for a
// best-effort discovery source.
func DecodeBody(raw []byte, hint string) string {
	if hint != "" {
		if enc, _ := charset.Lookup(hint); enc != nil {
			if text, ok := tryDecode(enc, raw); ok {
				return text
			}
		}
	}

	if utf8.Valid(raw) {
		return string(raw)
	}

	for _, enc := range fallbackEncodings {
		if text, ok := tryDecode(enc, raw); ok {
			return text
		}
	}

	return strings.ToValidUTF8(string(raw), "")
}

func tryDecode(enc encoding.Encoding, raw []byte) (string, bool) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil || !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
