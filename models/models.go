package models

// Query is a saved, named SQL statement with rendering and access metadata.
// Rows are seeded/administered externally; this service only reads them.
type Query struct {
	ID           int                    `json:"id"`
	Name         string                 `json:"name"`
	Description  string                 `json:"description,omitempty"`
	SQLQuery     string                 `json:"sql_query"`
	ChartType    string                 `json:"chart_type,omitempty"` // "table", "bar", "line", "pie", "doughnut", "kpi"
	ChartConfig  map[string]interface{} `json:"chart_config,omitempty"`
	MenuItemID   int                    `json:"menu_item_id,omitempty"`
	Role         string                 `json:"role,omitempty"` // comma-joined role set, case-insensitive
	IsKPI        bool                   `json:"is_kpi,omitempty"`
	IsFormReport bool                   `json:"is_form_report,omitempty"`
	FormTemplate string                 `json:"form_template,omitempty"`
	IsActive     bool                   `json:"is_active"`
	CreatedAt    string                 `json:"created_at,omitempty"`
}

// FilterCondition is a single column/operator/value predicate.
// Operator is one of: eq, ne, gt, lt, gte, lte, like, in.
// Value is a scalar for all operators except "in", which takes a list.
type FilterCondition struct {
	Column   string      `json:"column"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value"`
}

// TableFilter is an ordered condition list joined by a single logic word.
type TableFilter struct {
	Conditions []FilterCondition `json:"conditions"`
	Logic      string            `json:"logic"` // "AND" or "OR"
}

type TableData struct {
	Columns    []string        `json:"columns"`
	Rows       [][]interface{} `json:"rows"`
	TotalCount int             `json:"total_count"`
}

// Dataset mirrors the chart.js dataset shape the frontend consumes.
type Dataset struct {
	Label           string      `json:"label,omitempty"`
	Data            []float64   `json:"data"`
	BackgroundColor interface{} `json:"backgroundColor,omitempty"` // string or []string
	BorderColor     string      `json:"borderColor,omitempty"`
	BorderWidth     int         `json:"borderWidth,omitempty"`
	Fill            *bool       `json:"fill,omitempty"`
}

type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// QueryResult is the discriminated outcome of one pipeline run. On success
// exactly one of Table/Chart is set; on failure only Error carries a
// sanitized, user-safe message.
type QueryResult struct {
	Success       bool                   `json:"success"`
	Table         *TableData             `json:"table,omitempty"`
	Chart         *ChartData             `json:"chart,omitempty"`
	ChartType     string                 `json:"chart_type,omitempty"`
	ChartConfig   map[string]interface{} `json:"chart_config,omitempty"`
	Error         string                 `json:"error,omitempty"`
	ExecutionTime float64                `json:"execution_time"`
}

type KPI struct {
	ID    int     `json:"id"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// MenuItem is a node in the navigation tree shown to a role.
type MenuItem struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Type      string      `json:"type"`
	Icon      string      `json:"icon,omitempty"`
	ParentID  int         `json:"parent_id,omitempty"`
	SortOrder int         `json:"sort_order"`
	IsActive  bool        `json:"is_active"`
	Role      string      `json:"role,omitempty"`
	Children  []*MenuItem `json:"children"`
}

type DashboardWidget struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	QueryID   int    `json:"query_id"`
	PositionX int    `json:"position_x"`
	PositionY int    `json:"position_y"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	IsActive  bool   `json:"is_active"`
	Query     *Query `json:"query,omitempty"`
}

// Request payloads

type QueryExecuteRequest struct {
	QueryID  int    `json:"query_id,omitempty"`
	SQLQuery string `json:"sql_query,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

type FilteredQueryRequest struct {
	QueryID       int          `json:"query_id,omitempty"`
	SQLQuery      string       `json:"sql_query,omitempty"`
	Filters       *TableFilter `json:"filters,omitempty"`
	Limit         int          `json:"limit,omitempty"`
	Offset        int          `json:"offset,omitempty"`
	SortColumn    string       `json:"sort_column,omitempty"`
	SortDirection string       `json:"sort_direction,omitempty"`
}

type ExportRequest struct {
	QueryID  int    `json:"query_id,omitempty"`
	SQLQuery string `json:"sql_query,omitempty"`
	Format   string `json:"format"` // "csv" or "excel"
	Filename string `json:"filename,omitempty"`
}

// Spreadsheet comparison

// CellDiff records one mismatched cell, both values truncated for display.
type CellDiff struct {
	Sheet  string `json:"sheet"`
	CellID string `json:"cell_id"` // spreadsheet-style address, e.g. "BZ12"
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
}

// SheetResult statuses: "matched", "not matched", "sheet_missing_in_file1",
// "sheet_missing_in_file2", "comparison_error".
type SheetResult struct {
	Sheet       string     `json:"sheet"`
	Status      string     `json:"status"`
	Differences []CellDiff `json:"differences"`
	Detail      string     `json:"detail,omitempty"`
}

type ComparisonOutcome struct {
	Success       bool          `json:"success"`
	TotalSheets   int           `json:"total_sheets"`
	MatchedSheets int           `json:"matched_sheets"`
	Truncated     bool          `json:"truncated"`
	Results       []SheetResult `json:"comparison_results"`
	Summary       string        `json:"summary"`
}

// Export result files saved on disk

type ResultFileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Format   string `json:"format"`
}
