package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"reportdeck/models"
	"reportdeck/validation"
)

const structureTimeout = 10 * time.Second

// DataService is the query execution orchestrator: validate, filter,
// paginate, count, execute with a deadline, translate errors and shape the
// result. Role authorization happens in the HTTP layer before this point;
// the orchestrator is role-agnostic.
type DataService struct {
	sqlService       *SQLServerService
	countTimeout     time.Duration
	defaultPageLimit int
	maxPageLimit     int
}

func NewDataService(sqlService *SQLServerService, countTimeout time.Duration, defaultPageLimit, maxPageLimit int) *DataService {
	return &DataService{
		sqlService:       sqlService,
		countTimeout:     countTimeout,
		defaultPageLimit: defaultPageLimit,
		maxPageLimit:     maxPageLimit,
	}
}

func failure(message string, start time.Time) *models.QueryResult {
	return &models.QueryResult{
		Success:       false,
		Error:         message,
		ExecutionTime: time.Since(start).Seconds(),
	}
}

func (d *DataService) timeoutMessage() string {
	return fmt.Sprintf("Query timed out after %d seconds. Try reducing data range or complexity.",
		int(d.sqlService.QueryTimeout().Seconds()))
}

// configured reports whether query execution has a database behind it. The
// service starts without one when SQL Server is not configured; every
// entry point degrades to a typed failure instead of reaching a nil
// executor.
func (d *DataService) configured() bool {
	return d.sqlService != nil
}

// normalizePage validates limit/offset: negatives and zero fall back to the
// defaults, and limit is clamped to the configured maximum.
func (d *DataService) normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = d.defaultPageLimit
	}
	if limit > d.maxPageLimit {
		limit = d.maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// translateError turns a raw execution error into a user-safe message and
// logs the vendor detail server-side.
func (d *DataService) translateError(kind string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		log.Printf("%s query timeout: %v", kind, err)
		return d.timeoutMessage()
	}
	log.Printf("%s query execution error: %v", kind, err)
	return ClassifyDBError(err)
}

// ExecuteQueryForTable runs a read-only statement as a bounded page plus an
// independent total count, recovering column headers when the page is
// empty.
func (d *DataService) ExecuteQueryForTable(ctx context.Context, query string, limit, offset int) *models.QueryResult {
	start := time.Now()

	if !d.configured() {
		return failure(MsgNotConfigured, start)
	}
	if err := validation.ValidateSQL(query); err != nil {
		return failure(err.Error(), start)
	}
	sanitized := validation.SanitizeSQL(query)
	limit, offset = d.normalizePage(limit, offset)

	columns, rows, err := d.sqlService.ExecuteQuery(ctx, PaginateQuery(sanitized, limit, offset))
	if err != nil {
		return failure(d.translateError("table", err), start)
	}
	columns, rows = StripRowNum(columns, rows)

	if len(rows) == 0 {
		columns = d.recoverColumns(ctx, sanitized, columns)
		rows = [][]interface{}{}
	}

	totalCount := d.countRows(ctx, sanitized, len(rows), offset)

	return &models.QueryResult{
		Success:       true,
		Table:         &models.TableData{Columns: columns, Rows: rows, TotalCount: totalCount},
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// ExecuteQueryForChart runs a statement without pagination and shapes the
// result for the requested chart kind. An empty result set is a failure;
// charts are never rendered over empty series.
func (d *DataService) ExecuteQueryForChart(ctx context.Context, query, chartType string, chartConfig map[string]interface{}) *models.QueryResult {
	start := time.Now()

	if !d.configured() {
		return failure(MsgNotConfigured, start)
	}
	if err := validation.ValidateSQL(query); err != nil {
		return failure(err.Error(), start)
	}
	sanitized := validation.SanitizeSQL(query)

	columns, rows, err := d.sqlService.ExecuteQuery(ctx, sanitized)
	if err != nil {
		return failure(d.translateError("chart", err), start)
	}
	if len(rows) == 0 {
		return failure("Query returned no data", start)
	}

	chart, err := FormatChartData(columns, rows, chartType)
	if err != nil {
		return failure("Query returned no data", start)
	}

	if chartConfig == nil {
		chartConfig = map[string]interface{}{}
	}
	return &models.QueryResult{
		Success:       true,
		Chart:         chart,
		ChartType:     chartType,
		ChartConfig:   chartConfig,
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// ExecuteFilteredQuery applies structured filters and optional sorting to a
// base statement, then pages it. The base SQL has already been resolved
// from a saved query or supplied raw by the caller.
func (d *DataService) ExecuteFilteredQuery(ctx context.Context, baseSQL string, req *models.FilteredQueryRequest) *models.QueryResult {
	start := time.Now()

	if !d.configured() {
		return failure(MsgNotConfigured, start)
	}
	if err := validation.ValidateSQL(baseSQL); err != nil {
		return failure(err.Error(), start)
	}
	sanitized := validation.SanitizeSQL(baseSQL)

	filtered := ApplyFilters(sanitized, req.Filters)

	// Count runs against the filtered statement, before sort/pagination.
	totalCount, countErr := d.executeCount(ctx, filtered)
	if countErr != nil {
		return failure(d.translateError("filtered count", countErr), start)
	}

	sorted := ApplySort(filtered, req.SortColumn, req.SortDirection)
	limit, offset := d.normalizePage(req.Limit, req.Offset)

	columns, rows, err := d.sqlService.ExecuteQuery(ctx, PaginateQuery(sorted, limit, offset))
	if err != nil {
		return failure(d.translateError("filtered", err), start)
	}
	columns, rows = StripRowNum(columns, rows)

	if len(rows) == 0 {
		columns = d.recoverColumns(ctx, filtered, columns)
		rows = [][]interface{}{}
	}

	return &models.QueryResult{
		Success:       true,
		Table:         &models.TableData{Columns: columns, Rows: rows, TotalCount: totalCount},
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// FetchAll runs a statement without pagination for export, recovering
// headers for empty result sets so exports keep their column structure.
// The caller owns the deadline; exports may legitimately run long.
func (d *DataService) FetchAll(ctx context.Context, query string) ([]string, [][]interface{}, error) {
	if !d.configured() {
		return nil, nil, ErrNotConfigured
	}
	if err := validation.ValidateSQL(query); err != nil {
		return nil, nil, err
	}
	sanitized := validation.SanitizeSQL(query)

	columns, rows, err := d.sqlService.ExecuteQueryTimeout(ctx, sanitized, 0)
	if err != nil {
		return nil, nil, err
	}

	if len(rows) == 0 {
		columns = d.recoverColumns(ctx, sanitized, columns)
		rows = [][]interface{}{}
	}
	return columns, rows, nil
}

// EvaluateKPI runs a KPI statement and coerces the first cell of the first
// row to a number. Failures coerce to zero rather than erroring, so one
// broken KPI never empties a dashboard.
func (d *DataService) EvaluateKPI(ctx context.Context, query string) float64 {
	if !d.configured() {
		log.Printf("KPI query skipped: %v", ErrNotConfigured)
		return 0
	}
	sanitized := validation.SanitizeSQL(query)
	if err := validation.ValidateSQL(sanitized); err != nil {
		log.Printf("KPI query rejected: %v", err)
		return 0
	}

	_, rows, err := d.sqlService.ExecuteQuery(ctx, sanitized)
	if err != nil {
		log.Printf("KPI query execution error: %v", err)
		return 0
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		log.Printf("KPI query returned no results")
		return 0
	}
	return toFloat(rows[0][0])
}

// recoverColumns executes a zero-row variant of the query so empty tables
// and exports still carry correct headers.
func (d *DataService) recoverColumns(ctx context.Context, query string, current []string) []string {
	if len(current) > 0 {
		return current
	}
	columns, _, err := d.sqlService.ExecuteQueryTimeout(ctx, StructureQuery(query), structureTimeout)
	if err != nil {
		log.Printf("Warning: could not get column structure for empty result: %v", err)
		return current
	}
	log.Printf("Recovered column structure for empty result: %v", columns)
	return columns
}

// countRows computes the independent total count. A count timeout degrades
// to pageSize+offset as an estimate; other count errors degrade to zero.
func (d *DataService) countRows(ctx context.Context, query string, pageSize, offset int) int {
	total, err := d.executeCount(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Printf("Count query timed out, using current page size as estimate")
			return pageSize + offset
		}
		log.Printf("Count query failed: %v", err)
		return 0
	}
	return total
}

func (d *DataService) executeCount(ctx context.Context, query string) (int, error) {
	timeout := d.countTimeout
	if qt := d.sqlService.QueryTimeout(); qt > 0 && qt < timeout {
		timeout = qt
	}

	_, rows, err := d.sqlService.ExecuteQueryTimeout(ctx, CountQuery(query), timeout)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}

	switch v := rows[0][0].(type) {
	case nil:
		return 0, nil
	case string:
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			return 0, convErr
		}
		return n, nil
	case int64:
		return int(v), nil
	default:
		n, convErr := strconv.Atoi(fmt.Sprintf("%v", v))
		if convErr != nil {
			return 0, convErr
		}
		return n, nil
	}
}
