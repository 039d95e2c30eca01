package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"reportdeck/models"
	"reportdeck/validation"
)

// asSQLLiteral renders a filter value for embedding in a WHERE fragment.
// Numbers are inlined as-is; everything else becomes a quoted string literal
// through the single escaping primitive.
func asSQLLiteral(value interface{}) string {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return validation.EscapeLiteral(fmt.Sprintf("%v", value))
	}
}

// ApplyFilters appends a WHERE fragment built from the filter conditions to
// the base query. Conditions with unknown operators are skipped; an "in"
// condition whose value is not a list is skipped. When the base query
// already contains a WHERE clause (case-insensitive substring check, an
// approximation rather than a parse) the fragment is appended with AND.
func ApplyFilters(baseQuery string, filters *models.TableFilter) string {
	if filters == nil || len(filters.Conditions) == 0 {
		return baseQuery
	}

	var conditions []string
	for _, cond := range filters.Conditions {
		column := cond.Column
		value := cond.Value

		switch strings.ToLower(cond.Operator) {
		case "eq":
			conditions = append(conditions, fmt.Sprintf("%s = %s", column, asSQLLiteral(value)))
		case "ne":
			conditions = append(conditions, fmt.Sprintf("%s != %s", column, asSQLLiteral(value)))
		case "gt":
			conditions = append(conditions, fmt.Sprintf("%s > %s", column, asSQLLiteral(value)))
		case "lt":
			conditions = append(conditions, fmt.Sprintf("%s < %s", column, asSQLLiteral(value)))
		case "gte":
			conditions = append(conditions, fmt.Sprintf("%s >= %s", column, asSQLLiteral(value)))
		case "lte":
			conditions = append(conditions, fmt.Sprintf("%s <= %s", column, asSQLLiteral(value)))
		case "like":
			conditions = append(conditions, fmt.Sprintf("%s LIKE '%%' || %s || '%%'", column, asSQLLiteral(value)))
		case "in":
			list, ok := value.([]interface{})
			if !ok {
				continue
			}
			literals := make([]string, len(list))
			for i, v := range list {
				literals[i] = asSQLLiteral(v)
			}
			conditions = append(conditions, fmt.Sprintf("%s IN (%s)", column, strings.Join(literals, ", ")))
		}
	}

	if len(conditions) == 0 {
		return baseQuery
	}

	logic := strings.ToUpper(strings.TrimSpace(filters.Logic))
	if logic != "OR" {
		logic = "AND"
	}
	whereClause := strings.Join(conditions, " "+logic+" ")

	if strings.Contains(strings.ToUpper(baseQuery), "WHERE") {
		return fmt.Sprintf("%s AND (%s)", baseQuery, whereClause)
	}
	return fmt.Sprintf("%s WHERE (%s)", baseQuery, whereClause)
}

// ApplySort appends an ORDER BY clause for a caller-supplied sort column.
// The column is reduced to alphanumerics/underscores before embedding.
func ApplySort(query, sortColumn, sortDirection string) string {
	safeColumn := validation.SafeSortColumn(sortColumn)
	if safeColumn == "" {
		return query
	}
	direction := "ASC"
	if strings.ToUpper(sortDirection) == "DESC" {
		direction = "DESC"
	}
	return fmt.Sprintf("%s ORDER BY %s %s", query, safeColumn, direction)
}

// PaginateQuery wraps the input in the row-numbering idiom: the inner layer
// assigns a sequential rnum, the middle layer keeps rows up to limit+offset
// and the outer layer drops rows at or below the offset. The rnum column is
// stripped from results by the executor before shaping.
func PaginateQuery(query string, limit, offset int) string {
	return fmt.Sprintf(`SELECT * FROM (
    SELECT * FROM (
        SELECT a.*, ROW_NUMBER() OVER (ORDER BY (SELECT NULL)) AS rnum FROM (
            %s
        ) a
    ) ranked WHERE rnum <= %d
) paged WHERE rnum > %d`, query, limit+offset, offset)
}

// CountQuery derives the total-count statement. Counts are always computed
// independently of the page because the page may be short or empty.
func CountQuery(query string) string {
	return fmt.Sprintf("SELECT COUNT(*) AS total_count FROM (%s) sub", query)
}

// StructureQuery derives a zero-row variant used to recover column headers
// when the paged result is empty.
func StructureQuery(query string) string {
	return fmt.Sprintf("SELECT * FROM (%s) sub WHERE 1=0", query)
}
