package ingest

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/raffle/internal/record"
)

func TestParse_NormalisesHeadersAndValues(t *testing.T) {
	raw := []byte("Email, First Name ,LAST NAME,Attended\n  a@x.com , Ann,Lee, 2 \n")

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"email", "first name", "last name", "attended"}, rows[0].Names())
	assert.Equal(t, "a@x.com", rows[0].Value("email"))
	assert.Equal(t, "Ann", rows[0].Value("first name"))
	assert.Equal(t, "2", rows[0].Value("attended"))

	assert.Equal(t, "Email", rows[0][0].Header)
	assert.Equal(t, "First Name", rows[0][1].Label())
	assert.Equal(t, "LAST NAME", rows[0][2].Header)
}

func TestParse_HeaderKeptOnlyWhenSpellingDiffers(t *testing.T) {
	rows := Parse([]byte("email,Event Notes\na@x.com,bring ID\n"))
	require.Len(t, rows, 1)

	assert.Equal(t, "", rows[0][0].Header)
	assert.Equal(t, "email", rows[0][0].Label())
	assert.Equal(t, record.Column{Name: "event notes", Header: "Event Notes", Value: "bring ID"}, rows[0][1])
}

func TestParse_StripsUTF8BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("email,first name,last name\na@x.com,Ann,Lee\n")...)

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, "email", rows[0][0].Name)
}

func TestParse_DecodesUTF16WithBOM(t *testing.T) {
	text := "email,first name,last name\na@x.com,Zoë,Lee\n"
	raw := []byte{0xFF, 0xFE}
	for _, r := range text {
		raw = append(raw, byte(r), byte(r>>8))
	}

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, "Zoë", rows[0].Value("first name"))
}

func TestParse_ReplacesInvalidUTF8(t *testing.T) {
	raw := []byte("email,first name,last name\na@x.com,An\xffn,Lee\n")

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, "An\uFFFDn", rows[0].Value("first name"))
}

func TestParse_SkipsBannerPreamble(t *testing.T) {
	raw := []byte(`Meeting Summary
Total participants,3
Meeting title,Spring Tour

First Name,Last Name,Email,Participation Status
Ann,Lee,a@x.com,Planned
Bo,Kim,b@y.com,Declined
`)

	assert.Equal(t, "banner-prefixed", Detect(raw))
	rows := Parse(raw)
	require.Len(t, rows, 2)
	assert.Equal(t, "Planned", rows[0].Value("participation status"))
	assert.Equal(t, "b@y.com", rows[1].Value("email"))
}

func TestParse_HeaderFirstDetected(t *testing.T) {
	raw := []byte("email,First Name,Last Name\na@x.com,Ann,Lee\n")
	assert.Equal(t, "header-first", Detect(raw))
}

func TestParse_FallsBackToFirstLine(t *testing.T) {
	raw := []byte("attendee id,status\n17,yes\n")

	assert.Equal(t, "first-line", Detect(raw))
	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, "17", rows[0].Value("attendee id"))
}

func TestParse_EmptyInputs(t *testing.T) {
	for name, raw := range map[string][]byte{
		"nil":        nil,
		"empty":      {},
		"whitespace": []byte("\n\n   \n"),
	} {
		t.Run(name, func(t *testing.T) {
			rows := Parse(raw)
			assert.NotNil(t, rows)
			assert.Empty(t, rows)
			assert.Equal(t, "", Detect(raw))
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	rows := Parse([]byte("email,first name,last name\n"))
	assert.Empty(t, rows)
}

func TestParse_ShortAndLongRows(t *testing.T) {
	raw := []byte("email,first name,last name\na@x.com\nb@y.com,Bo,Kim,chess,robotics\n")

	rows := Parse(raw)
	require.Len(t, rows, 2)
	assert.Equal(t, "", rows[0].Value("last name"))
	assert.Equal(t, "chess,robotics", rows[1].Value(OverflowColumn))
}

func TestParse_QuotedMultiValueCell(t *testing.T) {
	raw := []byte("email,first name,last name,attended events\na@x.com,Ann,Lee,\"Tour, Gala\"\n")

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, "Tour, Gala", rows[0].Value("attended events"))
}

func TestParse_SkipsBlankRowsAndBlankHeaders(t *testing.T) {
	raw := []byte("email,,first name,last name\n,,,\na@x.com,junk,Ann,Lee\n")

	rows := Parse(raw)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"email", "first name", "last name"}, rows[0].Names())
}

func TestParseWith_CustomStrategies(t *testing.T) {
	raw := []byte("title line\nemail,first name,last name\na@x.com,Ann,Lee\n")

	rows, name := ParseWith(raw, HeaderFirst{})
	assert.Empty(t, rows)
	assert.Equal(t, "", name)

	rows, name = ParseWith(raw, FirstLine{})
	assert.Equal(t, "first-line", name)
	assert.Len(t, rows, 2)
}

func TestFromMaps_FlattensLists(t *testing.T) {
	rows := FromMaps([]map[string]any{
		{"Email": "a@x.com", "Attended Events": []any{"Tour", "Gala"}, "Attended": 2},
	})

	require.Len(t, rows, 1)
	assert.Equal(t, "Tour,Gala", rows[0].Value("attended events"))
	assert.Equal(t, "2", rows[0].Value("attended"))
	assert.Equal(t, []string{"attended", "attended events", "email"}, rows[0].Names())
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "", Flatten(nil))
	assert.Equal(t, "x", Flatten(" x "))
	assert.Equal(t, "a,b", Flatten([]string{"a", " ", "b"}))
	assert.Equal(t, "20.5", Flatten(20.5))
	assert.Equal(t, "true", Flatten(true))
	assert.Equal(t, "a,1,b,c", Flatten([]any{"a", 1, []any{"b", "c"}}))
}

func TestEncode_RoundTripsThroughParse(t *testing.T) {
	rows := []Row{
		{{Name: "email", Value: "a@x.com"}, {Name: "first name", Value: "Ann"}, {Name: "last name", Value: "Lee"}},
		{{Name: "email", Value: "b@y.com"}, {Name: "status", Value: "yes, planned"}},
	}

	out := Encode(rows)
	assert.Equal(t, "email,first name,last name,status\na@x.com,Ann,Lee,\nb@y.com,,,\"yes, planned\"\n", string(out))

	back := Parse(out)
	require.Len(t, back, 2)
	assert.Equal(t, "yes, planned", back[1].Value("status"))
	assert.Equal(t, record.Column{Name: "last name", Value: ""}, back[1][2])
}

func TestEncode_Empty(t *testing.T) {
	assert.Empty(t, Encode(nil))
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriteCSV_ReportsWriterError(t *testing.T) {
	diskFull := errors.New("disk full")

	err := WriteCSV(failingWriter{err: diskFull}, [][]string{{"email"}, {"a@x.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, diskFull)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, [][]string{{"email", "events"}, {"a@x.com", "Tour, Gala"}}))
	assert.Equal(t, "email,events\na@x.com,\"Tour, Gala\"\n", buf.String())
	assert.Equal(t, buf.Bytes(), MustCSV([][]string{{"email", "events"}, {"a@x.com", "Tour, Gala"}}))
}
