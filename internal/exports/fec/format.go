package fec

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Header lists the mandatory columns (article A47 A-1 of the Livre des Procédures Fiscales).
var Header = []string{
	"JournalCode", "JournalLib", "EcritureNum", "EcritureDate",
	"CompteNum", "CompteLib", "CompAuxNum", "CompAuxLib",
	"PieceRef", "PieceDate", "EcritureLib", "Debit", "Credit",
	"EcritureLet", "DateLet", "ValidDate", "Montantdevise", "Idevise",
}

const (
	separator  = "|"
	dateLayout = "20060102"
)

var fieldReplacer = strings.NewReplacer("|", " ", "\r", " ", "\n", " ")

// Sanitize makes free text safe for the unquoted pipe format.
func Sanitize(value string) string {
	return strings.TrimSpace(fieldReplacer.Replace(value))
}

// FormatAmount renders a decimal with a comma separator and two fraction digits.
func FormatAmount(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FormatDate renders YYYYMMDD; the zero time renders empty.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Filename follows the {SIREN}FEC{YYYYMMDD}.txt convention.
func Filename(siren string, closing time.Time) string {
	if strings.TrimSpace(siren) == "" {
		siren = DefaultSIREN
	}
	return fmt.Sprintf("%sFEC%s.txt", siren, FormatDate(closing))
}

// Record renders the 18 columns of the line.
func (l Line) Record() []string {
	letDate := ""
	if l.LetteringDate != nil {
		letDate = FormatDate(*l.LetteringDate)
	}
	return []string{
		Sanitize(l.JournalCode),
		Sanitize(l.JournalLabel),
		l.EntryNumber,
		FormatDate(l.EntryDate),
		Sanitize(l.AccountNumber),
		Sanitize(l.AccountLabel),
		Sanitize(l.AuxAccountNum),
		Sanitize(l.AuxAccountLabel),
		Sanitize(l.PieceRef),
		FormatDate(l.PieceDate),
		Sanitize(l.Label),
		FormatAmount(l.Debit),
		FormatAmount(l.Credit),
		Sanitize(l.LetteringCode),
		letDate,
		FormatDate(l.ValidationDate),
		Sanitize(l.ForeignAmount),
		Sanitize(l.CurrencyCode),
	}
}

// Write streams the header followed by one row per line.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(Header, separator) + "\n"); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := bw.WriteString(strings.Join(line.Record(), separator) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Render returns the full file content in memory.
func Render(lines []Line) []byte {
	var buf bytes.Buffer
	_ = Write(&buf, lines)
	return buf.Bytes()
}

// Encoding selects the output character set.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin9 Encoding = "iso-8859-15"
)

// ParseEncoding accepts an empty value as UTF-8.
func ParseEncoding(value string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "iso-8859-15", "latin9", "latin-9":
		return EncodingLatin9, nil
	default:
		return "", fmt.Errorf("fec: unsupported encoding %q", value)
	}
}

// ContentType returns the HTTP content type for the encoding.
func (e Encoding) ContentType() string {
	if e == EncodingLatin9 {
		return "text/plain; charset=iso-8859-15"
	}
	return "text/plain; charset=utf-8"
}

// Encode converts UTF-8 content; runes outside ISO-8859-15 become the SUB control byte.
func (e Encoding) Encode(content []byte) ([]byte, error) {
	if e != EncodingLatin9 {
		return content, nil
	}
	out, err := encoding.ReplaceUnsupported(charmap.ISO8859_15.NewEncoder()).Bytes(content)
	if err != nil {
		return nil, fmt.Errorf("fec: encode %s: %w", e, err)
	}
	return out, nil
}
