package fec

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"1234.5":   "1234,50",
		"0":        "0,00",
		"1000000":  "1000000,00",
		"8.333":    "8,33",
		"0.005":    "0,01",
		"-12.4":    "-12,40",
		"99.999":   "100,00",
		"45":       "45,00",
		"20.00000": "20,00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "20240301", FormatDate(time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a b c", Sanitize(" a|b\nc "))
	assert.Equal(t, "line  break", Sanitize("line\r\nbreak"))
	assert.Equal(t, "", Sanitize(""))
}

func TestFilename(t *testing.T) {
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "000000000FEC20241231.txt", Filename("", to))
	assert.Equal(t, "123456789FEC20241231.txt", Filename("123456789", to))
}

func TestWriteProducesHeaderAndRows(t *testing.T) {
	lines, err := Build(Sources{Invoices: []Invoice{{
		ID: "1", Number: "F|1", Date: day(2024, 3, 1), Status: StatusPaid,
		CustomerID: "42", CustomerName: "ACME\nSARL",
		Subtotal: d("100"), TaxAmount: d("20"), Total: d("120"),
	}}})
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, Write(&sb, lines))
	rows := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	require.Len(t, rows, 4)
	assert.Equal(t, "JournalCode|JournalLib|EcritureNum|EcritureDate|CompteNum|CompteLib|CompAuxNum|CompAuxLib|PieceRef|PieceDate|EcritureLib|Debit|Credit|EcritureLet|DateLet|ValidDate|Montantdevise|Idevise", rows[0])
	for _, row := range rows {
		assert.Len(t, strings.Split(row, "|"), len(Header))
	}
	assert.Equal(t,
		"VE|Ventes|00000001|20240301|411000|Clients|C42|ACME SARL|F 1|20240301|Facture F 1 - ACME SARL|120,00|0,00|LF 1||20240301||EUR",
		rows[1])
	assert.True(t, strings.HasSuffix(sb.String(), "\n"))
}

func TestEmptyLedgerHasHeaderOnly(t *testing.T) {
	content := string(Render(nil))
	assert.Equal(t, strings.Join(Header, "|")+"\n", content)
}

func TestEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingUTF8, enc)
	assert.Equal(t, "text/plain; charset=utf-8", enc.ContentType())

	enc, err = ParseEncoding("ISO-8859-15")
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin9, enc)

	out, err := enc.Encode([]byte("TVA collectée €"))
	require.NoError(t, err)
	assert.Equal(t, []byte("TVA collect\xe9e \xa4"), out)

	_, err = ParseEncoding("ebcdic")
	assert.Error(t, err)
}
