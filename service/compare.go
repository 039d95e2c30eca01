package service

import (
	"bytes"
	"errors"
	"fmt"
	"log"

	"github.com/xuri/excelize/v2"

	"reportdeck/models"
)

// ErrNotASpreadsheet rejects upload bodies that do not look like a
// spreadsheet container at all.
var ErrNotASpreadsheet = errors.New("not a valid spreadsheet")

const diffValueDisplayLength = 100

// Comparator diffs two workbooks sheet by sheet, cell by cell. It is
// independent of the query pipeline.
type Comparator struct {
	maxSheetDiffs    int
	maxCompareCells  int
	clampedRowExtent int
}

func NewComparator(maxSheetDiffs, maxCompareCells, clampedRowExtent int) *Comparator {
	return &Comparator{
		maxSheetDiffs:    maxSheetDiffs,
		maxCompareCells:  maxCompareCells,
		clampedRowExtent: clampedRowExtent,
	}
}

// HasSpreadsheetSignature checks for the OOXML zip ("PK") or legacy OLE2
// container magic bytes.
func HasSpreadsheetSignature(data []byte) bool {
	return bytes.HasPrefix(data, []byte("PK")) || bytes.HasPrefix(data, []byte{0xd0, 0xcf})
}

// CompareWorkbooks aligns two workbooks by sheet name and diffs the common
// sheets. Sheets present in only one workbook are reported structurally,
// with no diff attempted. A sheet-level failure is captured as a
// comparison_error entry and never aborts the whole run.
func (c *Comparator) CompareWorkbooks(file1, file2 []byte) (*models.ComparisonOutcome, error) {
	if !HasSpreadsheetSignature(file1) {
		return nil, fmt.Errorf("file1: %w", ErrNotASpreadsheet)
	}
	if !HasSpreadsheetSignature(file2) {
		return nil, fmt.Errorf("file2: %w", ErrNotASpreadsheet)
	}

	wb1, err := excelize.OpenReader(bytes.NewReader(file1))
	if err != nil {
		log.Printf("Error loading first workbook: %v", err)
		return nil, fmt.Errorf("file1: %w", ErrNotASpreadsheet)
	}
	defer wb1.Close()

	wb2, err := excelize.OpenReader(bytes.NewReader(file2))
	if err != nil {
		log.Printf("Error loading second workbook: %v", err)
		return nil, fmt.Errorf("file2: %w", ErrNotASpreadsheet)
	}
	defer wb2.Close()

	sheets1 := wb1.GetSheetList()
	sheets2 := wb2.GetSheetList()

	in2 := make(map[string]bool, len(sheets2))
	for _, name := range sheets2 {
		in2[name] = true
	}
	in1 := make(map[string]bool, len(sheets1))
	for _, name := range sheets1 {
		in1[name] = true
	}

	outcome := &models.ComparisonOutcome{Results: []models.SheetResult{}}

	var commonCount int
	for _, name := range sheets1 {
		if !in2[name] {
			continue
		}
		commonCount++

		result, truncated := c.compareSheets(wb1, wb2, name)
		outcome.Results = append(outcome.Results, result)
		if truncated {
			outcome.Truncated = true
		}
		if result.Status == "matched" {
			outcome.MatchedSheets++
		}
	}

	var onlyOne int
	for _, name := range sheets1 {
		if !in2[name] {
			onlyOne++
			outcome.Results = append(outcome.Results, models.SheetResult{
				Sheet:       name,
				Status:      "sheet_missing_in_file2",
				Differences: []models.CellDiff{},
			})
		}
	}
	for _, name := range sheets2 {
		if !in1[name] {
			onlyOne++
			outcome.Results = append(outcome.Results, models.SheetResult{
				Sheet:       name,
				Status:      "sheet_missing_in_file1",
				Differences: []models.CellDiff{},
			})
		}
	}

	outcome.TotalSheets = commonCount + onlyOne
	outcome.Success = outcome.MatchedSheets == commonCount && onlyOne == 0
	outcome.Summary = fmt.Sprintf("Compared %d sheets. %d matched, %d had differences or were missing.",
		outcome.TotalSheets, outcome.MatchedSheets, outcome.TotalSheets-outcome.MatchedSheets)

	return outcome, nil
}

// compareSheets walks the maximum bounding rectangle of both sheets
// row-major, comparing stringified cell values. The second return value
// reports whether the performance clamp dropped rows.
func (c *Comparator) compareSheets(wb1, wb2 *excelize.File, sheet string) (result models.SheetResult, truncated bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error comparing sheet %q: %v", sheet, r)
			result = models.SheetResult{
				Sheet:       sheet,
				Status:      "comparison_error",
				Differences: []models.CellDiff{},
				Detail:      fmt.Sprintf("%v", r),
			}
		}
	}()

	rows1, err := wb1.GetRows(sheet)
	if err != nil {
		return sheetError(sheet, err), false
	}
	rows2, err := wb2.GetRows(sheet)
	if err != nil {
		return sheetError(sheet, err), false
	}

	maxRow1, maxCol1 := sheetExtent(rows1)
	maxRow2, maxCol2 := sheetExtent(rows2)

	if maxRow1 == 0 && maxRow2 == 0 {
		log.Printf("Both sheets %q are empty - marked as matched", sheet)
		return models.SheetResult{
			Sheet:       sheet,
			Status:      "matched",
			Differences: []models.CellDiff{},
			Detail:      "Empty sheet",
		}, false
	}

	maxRow := maxRow1
	if maxRow2 > maxRow {
		maxRow = maxRow2
	}
	maxCol := maxCol1
	if maxCol2 > maxCol {
		maxCol = maxCol2
	}

	if maxRow*maxCol > c.maxCompareCells {
		log.Printf("Warning: sheet %q is very large (%d cells); limiting comparison to first %d rows",
			sheet, maxRow*maxCol, c.clampedRowExtent)
		if maxRow > c.clampedRowExtent {
			maxRow = c.clampedRowExtent
			truncated = true
		}
	}

	var differences []models.CellDiff
	for row := 1; row <= maxRow && len(differences) < c.maxSheetDiffs; row++ {
		for col := 1; col <= maxCol; col++ {
			value1 := cellValue(rows1, row, col)
			value2 := cellValue(rows2, row, col)
			if value1 == value2 {
				continue
			}
			if len(differences) >= c.maxSheetDiffs {
				log.Printf("Warning: reached maximum differences limit (%d) for sheet %q", c.maxSheetDiffs, sheet)
				break
			}

			cellID, _ := excelize.CoordinatesToCellName(col, row)
			differences = append(differences, models.CellDiff{
				Sheet:  sheet,
				CellID: cellID,
				Value1: truncateForDisplay(value1),
				Value2: truncateForDisplay(value2),
			})
		}
	}

	if len(differences) == 0 {
		return models.SheetResult{
			Sheet:       sheet,
			Status:      "matched",
			Differences: []models.CellDiff{},
		}, truncated
	}
	return models.SheetResult{
		Sheet:       sheet,
		Status:      "not matched",
		Differences: differences,
	}, truncated
}

func sheetError(sheet string, err error) models.SheetResult {
	log.Printf("Error reading sheet %q: %v", sheet, err)
	return models.SheetResult{
		Sheet:       sheet,
		Status:      "comparison_error",
		Differences: []models.CellDiff{},
		Detail:      err.Error(),
	}
}

// sheetExtent returns the populated row count and the widest row length.
func sheetExtent(rows [][]string) (int, int) {
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	return len(rows), maxCol
}

// cellValue reads a 1-based cell position, normalizing positions outside
// the sheet's own extent to the empty string.
func cellValue(rows [][]string, row, col int) string {
	if row > len(rows) {
		return ""
	}
	r := rows[row-1]
	if col > len(r) {
		return ""
	}
	return r[col-1]
}

func truncateForDisplay(value string) string {
	runes := []rune(value)
	if len(runes) <= diffValueDisplayLength {
		return value
	}
	return string(runes[:diffValueDisplayLength])
}
