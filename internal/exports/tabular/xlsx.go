package tabular

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is served for every workbook download.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	defaultSheet   = "Sheet1"
	xlsxDateFormat = "dd/mm/yyyy"
	xlsxAmountFmt  = "#,##0.00"
)

// XLSX renders the table as a single sheet workbook named after the table.
// Amounts are written as numbers and dates as date cells.
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := t.Name
	if sheet == "" {
		sheet = defaultSheet
	}
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("tabular: rename sheet: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(xlsxDateFormat)})
	if err != nil {
		return nil, fmt.Errorf("tabular: date style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(xlsxAmountFmt)})
	if err != nil {
		return nil, fmt.Errorf("tabular: amount style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("tabular: header style: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("tabular: header: %w", err)
	}
	if last, err := excelize.CoordinatesToCellName(max(len(t.Columns), 1), 1); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last, headerStyle)
	}

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return nil, fmt.Errorf("tabular: row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			switch val := v.(type) {
			case nil:
				continue
			case decimal.Decimal:
				err = f.SetCellFloat(sheet, cell, val.InexactFloat64(), -1, 64)
				if err == nil {
					err = f.SetCellStyle(sheet, cell, cell, amountStyle)
				}
			case time.Time:
				if val.IsZero() {
					continue
				}
				err = f.SetCellValue(sheet, cell, val)
				if err == nil {
					err = f.SetCellStyle(sheet, cell, cell, dateStyle)
				}
			default:
				err = f.SetCellValue(sheet, cell, csvCell(val))
			}
			if err != nil {
				return nil, fmt.Errorf("tabular: cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("tabular: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// XLSXFilename returns the download name of the workbook.
func XLSXFilename(t Table) string {
	return t.Name + ".xlsx"
}

func strPtr(s string) *string {
	return &s
}
