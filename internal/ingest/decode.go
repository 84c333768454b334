package ingest

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw upload bytes to text. A leading byte-order mark is
// honoured and stripped (UTF-8 or UTF-16 spreadsheet exports), everything
// else is read as UTF-8 with invalid sequences replaced by U+FFFD.
func Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	// The only error the decoder reports is a truncated UTF-16 tail; the
	// prefix that decoded cleanly is still returned.
	out, _, _ := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), raw)
	return string(out)
}
