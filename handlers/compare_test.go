package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"reportdeck/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, cells map[string]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for addr, value := range cells {
		require.NoError(t, f.SetCellValue("Sheet1", addr, value))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type uploadFile struct {
	field string
	name  string
	data  []byte
}

func compareRequest(t *testing.T, files ...uploadFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/excel-compare", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func compareRouter(h *Handlers) *gin.Engine {
	router := gin.New()
	router.POST("/api/excel-compare", h.CompareExcelHandler)
	return router
}

func TestCompareExcelHandler(t *testing.T) {
	h := newTestHandlers(t)
	router := compareRouter(h)

	t.Run("matching workbooks compare successfully", func(t *testing.T) {
		wb := workbookBytes(t, map[string]interface{}{"A1": "metric", "B1": 42})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, compareRequest(t,
			uploadFile{"file1", "left.xlsx", wb},
			uploadFile{"file2", "right.xlsx", wb},
		))

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var outcome models.ComparisonOutcome
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		assert.True(t, outcome.Success)
		assert.Equal(t, 1, outcome.MatchedSheets)
	})

	t.Run("missing second file is rejected", func(t *testing.T) {
		wb := workbookBytes(t, map[string]interface{}{"A1": "x"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, compareRequest(t,
			uploadFile{"file1", "left.xlsx", wb},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file2 is required")
	})

	t.Run("non-excel extension is rejected", func(t *testing.T) {
		wb := workbookBytes(t, map[string]interface{}{"A1": "x"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, compareRequest(t,
			uploadFile{"file1", "left.txt", wb},
			uploadFile{"file2", "right.xlsx", wb},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file1")
	})

	t.Run("non-spreadsheet bytes behind a valid name are rejected", func(t *testing.T) {
		wb := workbookBytes(t, map[string]interface{}{"A1": "x"})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, compareRequest(t,
			uploadFile{"file1", "left.xlsx", wb},
			uploadFile{"file2", "right.xlsx", []byte("just plain text, no container magic")},
		))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "valid Excel file")
	})
}

func TestCompareExcelHandlerSizeCeiling(t *testing.T) {
	h := newTestHandlers(t)
	h.cfg.MaxUploadBytes = 64 // force the ceiling below any real workbook
	router := compareRouter(h)

	wb := workbookBytes(t, map[string]interface{}{"A1": "x"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, compareRequest(t,
		uploadFile{"file1", "left.xlsx", wb},
		uploadFile{"file2", "right.xlsx", wb},
	))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestValidUploadName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected bool
	}{
		{name: "xlsx accepted", filename: "report.xlsx", expected: true},
		{name: "xls accepted", filename: "legacy.xls", expected: true},
		{name: "uppercase extension accepted", filename: "REPORT.XLSX", expected: true},
		{name: "other extension rejected", filename: "report.csv", expected: false},
		{name: "no extension rejected", filename: "report", expected: false},
		{name: "empty rejected", filename: "", expected: false},
		{name: "path traversal rejected", filename: "../report.xlsx", expected: false},
		{name: "nested path rejected", filename: "dir/report.xlsx", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, validUploadName(tt.filename))
		})
	}
}
