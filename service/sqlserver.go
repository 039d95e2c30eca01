package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"reportdeck/config"

	mssql "github.com/microsoft/go-mssqldb"
)

// User-facing messages for the fixed database error taxonomy. Raw vendor
// error text is logged server-side and never returned to callers.
const (
	MsgGenericFailure = "Query execution failed. Please check your SQL syntax and try again."
	MsgSyntaxError    = "SQL syntax error: Please check your query syntax."
	MsgMissingObject  = "Table or view not found. Please verify the table name."
	MsgMissingColumn  = "Column not found. Please verify the column names."
	MsgNotConfigured  = "Database is not configured. Query execution is unavailable."
)

// ErrNotConfigured is returned when query execution is attempted without a
// SQL Server connection. The service deliberately starts without one when
// the connection is not configured.
var ErrNotConfigured = errors.New("SQL Server connection is not configured")

// errorCategoryByNumber maps SQL Server error numbers onto the taxonomy.
// 102/105/156 are syntax-class errors, 208 is a missing object, 207 a
// missing column.
var errorCategoryByNumber = map[int32]string{
	102: MsgSyntaxError,
	105: MsgSyntaxError,
	156: MsgSyntaxError,
	207: MsgMissingColumn,
	208: MsgMissingObject,
}

// ClassifyDBError translates a driver error to one of the four safe
// messages. Typed driver error numbers are preferred; substring matching on
// the error text is kept only as a fallback for wrapped or stringified
// errors.
func ClassifyDBError(err error) string {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		if msg, ok := errorCategoryByNumber[sqlErr.Number]; ok {
			return msg
		}
		return MsgGenericFailure
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "incorrect syntax"), strings.Contains(text, "missing right parenthesis"):
		return MsgSyntaxError
	case strings.Contains(text, "invalid object name"), strings.Contains(text, "table or view does not exist"):
		return MsgMissingObject
	case strings.Contains(text, "invalid column name"), strings.Contains(text, "invalid identifier"):
		return MsgMissingColumn
	default:
		return MsgGenericFailure
	}
}

type SQLServerService struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewSQLServerService(cfg config.SQLServerConfig, queryTimeout time.Duration) (*SQLServerService, error) {
	if cfg.Server == "" || cfg.Database == "" {
		return nil, fmt.Errorf("SQL Server configuration is incomplete")
	}

	db, err := sql.Open("sqlserver", buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL Server connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		// Do not fail startup on an unreachable server; the service can
		// come up before the database does.
		log.Printf("Warning: failed to ping SQL Server during initialization: %v", err)
	}

	return &SQLServerService{db: db, queryTimeout: queryTimeout}, nil
}

// NewSQLServerServiceWithDB wraps an existing pool. Used by tests.
func NewSQLServerServiceWithDB(db *sql.DB, queryTimeout time.Duration) *SQLServerService {
	return &SQLServerService{db: db, queryTimeout: queryTimeout}
}

func buildConnectionString(cfg config.SQLServerConfig) string {
	connStr := fmt.Sprintf("server=%s;port=%s;database=%s",
		cfg.Server, cfg.Port, cfg.Database)

	if cfg.UserID != "" {
		connStr += fmt.Sprintf(";user id=%s;password=%s", cfg.UserID, cfg.Password)
	} else {
		connStr += ";trusted_connection=true"
	}

	if cfg.Encrypt {
		connStr += ";encrypt=true;TrustServerCertificate=true"
	} else {
		connStr += ";encrypt=false"
	}

	return connStr
}

// The service may legitimately be nil (SQL Server not configured), so every
// method tolerates a nil receiver.

func (s *SQLServerService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLServerService) IsConnected() bool {
	if s == nil || s.db == nil {
		return false
	}
	return s.db.Ping() == nil
}

func (s *SQLServerService) QueryTimeout() time.Duration {
	if s == nil {
		return 0
	}
	return s.queryTimeout
}

// ExecuteQuery runs a statement under the service's default deadline.
func (s *SQLServerService) ExecuteQuery(ctx context.Context, query string) ([]string, [][]interface{}, error) {
	return s.ExecuteQueryTimeout(ctx, query, s.QueryTimeout())
}

// ExecuteQueryTimeout runs a statement with an explicit deadline and scans
// the result into column names and row-major values. NULLs stay nil; all
// other values are stringified for JSON serialization.
func (s *SQLServerService) ExecuteQueryTimeout(ctx context.Context, query string, timeout time.Duration) ([]string, [][]interface{}, error) {
	if s == nil || s.db == nil {
		return nil, nil, ErrNotConfigured
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var resultRows [][]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make([]interface{}, len(columns))
		for i, val := range values {
			switch v := val.(type) {
			case nil:
				row[i] = nil
			case []byte:
				row[i] = string(v)
			case time.Time:
				row[i] = v.Format(time.RFC3339)
			default:
				row[i] = fmt.Sprintf("%v", v)
			}
		}
		resultRows = append(resultRows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, resultRows, nil
}

// StripRowNum drops the pagination helper column so it never reaches the
// shaper or the caller.
func StripRowNum(columns []string, rows [][]interface{}) ([]string, [][]interface{}) {
	rnumIndex := -1
	for i, col := range columns {
		if strings.EqualFold(col, "rnum") {
			rnumIndex = i
			break
		}
	}
	if rnumIndex < 0 {
		return columns, rows
	}

	outCols := append(append([]string{}, columns[:rnumIndex]...), columns[rnumIndex+1:]...)
	outRows := make([][]interface{}, len(rows))
	for i, row := range rows {
		if rnumIndex < len(row) {
			outRows[i] = append(append([]interface{}{}, row[:rnumIndex]...), row[rnumIndex+1:]...)
		} else {
			outRows[i] = row
		}
	}
	return outCols, outRows
}
