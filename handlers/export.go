package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"reportdeck/models"
	"reportdeck/service"
	"reportdeck/validation"

	"github.com/gin-gonic/gin"
)

const (
	csvMediaType   = "text/csv"
	excelMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func isValidationError(err error) bool {
	return errors.Is(err, validation.ErrNotReadOnly) ||
		errors.Is(err, validation.ErrInjection) ||
		errors.Is(err, validation.ErrQueryTooLong)
}

// ExportHandler streams a query result as a CSV or Excel attachment
// @Summary      Export query data
// @Description  Execute a saved query or raw SQL without pagination and return the full result as a CSV or Excel download
// @Tags         Export
// @Accept       json
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        X-User-Role  header    string               false  "Caller role set (comma-joined)"
// @Param        request      body      models.ExportRequest true   "Export request"
// @Success      200          {file}    file                 "Exported file"
// @Failure      400          {object}  map[string]string    "Invalid request or unsafe SQL"
// @Failure      403          {object}  map[string]string    "Role not authorized"
// @Failure      404          {object}  map[string]string    "Query not found"
// @Failure      500          {object}  map[string]string    "Export failed"
// @Failure      503          {object}  map[string]string    "SQL Server not configured"
// @Router       /api/export [post]
func (h *Handlers) ExportHandler(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	format := strings.ToLower(req.Format)
	if format != "csv" && format != "excel" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported format; choose 'excel' or 'csv'"})
		return
	}

	sqlText := req.SQLQuery
	if req.QueryID != 0 {
		queryObj, handled := h.resolveQuery(c, req.QueryID)
		if handled {
			return
		}
		sqlText = queryObj.SQLQuery
	}
	if sqlText == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either query_id or sql_query must be provided"})
		return
	}

	ctx := c.Request.Context()
	columns, rows, err := h.data.FetchAll(ctx, sqlText)
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "SQL Server service is not configured"})
			return
		}
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Export query error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ClassifyDBError(err)})
		return
	}
	log.Printf("Export query completed, processing %d rows", len(rows))

	// Serialization is CPU-bound; run it behind the bounded worker gate.
	if err := h.workers.Acquire(ctx, 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Export canceled"})
		return
	}
	defer h.workers.Release(1)

	var (
		payload   []byte
		mediaType string
		filename  string
	)
	if format == "excel" {
		filename = service.ExportFilename(req.Filename, ".xlsx")
		payload, err = service.ExportToExcel(columns, rows)
		mediaType = excelMediaType
	} else {
		filename = service.ExportFilename(req.Filename, ".csv")
		payload, err = service.ExportToCSV(columns, rows)
		mediaType = csvMediaType
	}
	if err != nil {
		log.Printf("Export serialization error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed. Please try again or contact support."})
		return
	}

	if h.results != nil {
		if _, saveErr := h.results.SaveExport(filename, payload); saveErr != nil {
			log.Printf("Warning: failed to save export copy: %v", saveErr)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, mediaType, payload)
}

// ListResultFilesHandler lists stored export files
// @Summary      List export files
// @Description  List export files previously generated and stored on the server
// @Tags         Export
// @Produce      json
// @Success      200  {array}   models.ResultFileInfo
// @Failure      500  {object}  map[string]string  "Failed to list files"
// @Router       /api/results/files [get]
func (h *Handlers) ListResultFilesHandler(c *gin.Context) {
	files, err := h.results.ListResultFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list result files"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// GetResultFileHandler downloads a stored export file
// @Summary      Download an export file
// @Description  Download a previously generated export file by name
// @Tags         Export
// @Produce      application/octet-stream
// @Param        filename  path      string  true  "Stored export filename"
// @Success      200       {file}    file
// @Failure      404       {object}  map[string]string  "File not found"
// @Router       /api/results/file/{filename} [get]
func (h *Handlers) GetResultFileHandler(c *gin.Context) {
	path, err := h.results.GetResultFilePath(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result file not found"})
		return
	}
	c.FileAttachment(path, c.Param("filename"))
}
