package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Data"

// placeholderColumns stands in when even header recovery produced nothing,
// so exports are never a column-less blob.
var placeholderColumns = []string{"No Data Available"}

// ExportFilename resolves the attachment filename: the caller's name if
// given, otherwise a timestamped default, always with the format extension.
func ExportFilename(requested, extension string) string {
	filename := strings.TrimSpace(requested)
	if filename == "" {
		filename = fmt.Sprintf("export_%s", time.Now().Format("20060102_150405"))
	}
	if !strings.HasSuffix(strings.ToLower(filename), extension) {
		filename += extension
	}
	return filename
}

// ExportToCSV renders a result set as UTF-8, comma-delimited,
// newline-terminated CSV. An empty result set still writes its headers.
func ExportToCSV(columns []string, rows [][]interface{}) ([]byte, error) {
	if len(columns) == 0 {
		columns = placeholderColumns
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i := range columns {
			record[i] = stringifyCell(cellAt(row, i))
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToExcel renders a result set as a single-sheet workbook named
// "Data" with a bold, shaded header row and columns sized to content.
func ExportToExcel(columns []string, rows [][]interface{}) ([]byte, error) {
	if len(columns) == 0 {
		columns = placeholderColumns
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to name export sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D7E4BC"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border: []excelize.Border{
			{Type: "left", Style: 1, Color: "000000"},
			{Type: "right", Style: 1, Color: "000000"},
			{Type: "top", Style: 1, Color: "000000"},
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	maxWidths := make([]int, len(columns))
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheetName, cell, col); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
		maxWidths[i] = len(col)
	}

	firstHeader, _ := excelize.CoordinatesToCellName(1, 1)
	lastHeader, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(exportSheetName, firstHeader, lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header row: %w", err)
	}

	for rowIdx, row := range rows {
		for colIdx := range columns {
			value := stringifyCell(cellAt(row, colIdx))
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write data cell: %w", err)
			}
			if len(value) > maxWidths[colIdx] {
				maxWidths[colIdx] = len(value)
			}
		}
	}

	for i := range columns {
		width := float64(maxWidths[i] + 2)
		if width > 50 {
			width = 50
		}
		colName, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(exportSheetName, colName, colName, width); err != nil {
			return nil, fmt.Errorf("failed to size column: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
