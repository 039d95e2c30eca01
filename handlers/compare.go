package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"reportdeck/service"

	"github.com/gin-gonic/gin"
)

var (
	errUploadTooLarge  = errors.New("file too large")
	errUploadTimeout   = errors.New("file reading timed out")
	errUploadExtension = errors.New("only Excel files (.xlsx, .xls) are allowed")
)

func validUploadName(filename string) bool {
	if filename == "" || filename != filepath.Base(filename) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".xlsx" || ext == ".xls"
}

// readUpload pulls an upload body into memory under a byte ceiling and a
// fixed read deadline.
func readUpload(fh *multipart.FileHeader, maxBytes int64, timeout time.Duration) ([]byte, error) {
	if fh.Size > maxBytes {
		return nil, errUploadTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	type readResult struct {
		data []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		data, readErr := io.ReadAll(io.LimitReader(src, maxBytes+1))
		done <- readResult{data, readErr}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to read upload: %w", res.err)
		}
		if int64(len(res.data)) > maxBytes {
			return nil, errUploadTooLarge
		}
		return res.data, nil
	case <-time.After(timeout):
		return nil, errUploadTimeout
	}
}

func (h *Handlers) loadWorkbookUpload(c *gin.Context, field string) ([]byte, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is required", field)})
		return nil, false
	}
	if !validUploadName(fh.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s name or type: %s", field, errUploadExtension)})
		return nil, false
	}

	data, err := readUpload(fh, h.cfg.MaxUploadBytes, h.cfg.UploadReadLimit)
	if err != nil {
		switch {
		case errors.Is(err, errUploadTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s too large. Maximum size is %dMB", field, h.cfg.MaxUploadBytes/(1024*1024))})
		case errors.Is(err, errUploadTimeout):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File reading timed out. Files may be too large or corrupted"})
		default:
			log.Printf("Error reading %s upload: %v", field, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading uploaded files. Please ensure files are not corrupted"})
		}
		return nil, false
	}

	if !service.HasSpreadsheetSignature(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s does not appear to be a valid Excel file", field)})
		return nil, false
	}
	return data, true
}

// CompareExcelHandler diffs two uploaded workbooks
// @Summary      Compare two Excel files
// @Description  Compare two uploaded workbooks sheet by sheet, cell by cell, reporting per-sheet match status and bounded cell differences
// @Tags         Compare
// @Accept       multipart/form-data
// @Produce      json
// @Param        file1  formData  file  true  "First workbook"
// @Param        file2  formData  file  true  "Second workbook"
// @Success      200    {object}  models.ComparisonOutcome
// @Failure      400    {object}  map[string]string  "Invalid upload"
// @Failure      500    {object}  map[string]string  "Comparison failed"
// @Router       /api/excel-compare [post]
func (h *Handlers) CompareExcelHandler(c *gin.Context) {
	file1, ok := h.loadWorkbookUpload(c, "file1")
	if !ok {
		return
	}
	file2, ok := h.loadWorkbookUpload(c, "file2")
	if !ok {
		return
	}

	// Parsing and diffing are CPU-bound; bound their concurrency.
	if err := h.workers.Acquire(c.Request.Context(), 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Comparison canceled"})
		return
	}
	defer h.workers.Release(1)

	outcome, err := h.comparator.CompareWorkbooks(file1, file2)
	if err != nil {
		if errors.Is(err, service.ErrNotASpreadsheet) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Uploaded file is not a valid spreadsheet"})
			return
		}
		log.Printf("Excel comparison error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare Excel files. Please ensure both files are valid Excel files and try again"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}
