package service

import (
	"fmt"
	"testing"

	"reportdeck/models"

	"github.com/stretchr/testify/assert"
)

func TestApplyFilters(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		filters  *models.TableFilter
		expected string
	}{
		{
			name:     "nil filters returns base unchanged",
			base:     "SELECT * FROM app_users",
			filters:  nil,
			expected: "SELECT * FROM app_users",
		},
		{
			name:     "empty condition list returns base unchanged",
			base:     "SELECT * FROM app_users",
			filters:  &models.TableFilter{Conditions: []models.FilterCondition{}},
			expected: "SELECT * FROM app_users",
		},
		{
			name: "single eq on query without where",
			base: "SELECT * FROM app_users",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "role", Operator: "eq", Value: "ADMIN"},
				},
			},
			expected: "SELECT * FROM app_users WHERE (role = 'ADMIN')",
		},
		{
			name: "existing where appends with and",
			base: "SELECT * FROM app_users WHERE active = 1",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "role", Operator: "eq", Value: "ADMIN"},
				},
			},
			expected: "SELECT * FROM app_users WHERE active = 1 AND (role = 'ADMIN')",
		},
		{
			name: "two conditions default to and",
			base: "SELECT * FROM metrics",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "region", Operator: "eq", Value: "EU"},
					{Column: "hits", Operator: "gt", Value: float64(100)},
				},
			},
			expected: "SELECT * FROM metrics WHERE (region = 'EU' AND hits > 100)",
		},
		{
			name: "explicit or logic",
			base: "SELECT * FROM metrics",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "region", Operator: "eq", Value: "EU"},
					{Column: "region", Operator: "eq", Value: "US"},
				},
				Logic: "or",
			},
			expected: "SELECT * FROM metrics WHERE (region = 'EU' OR region = 'US')",
		},
		{
			name: "like wraps value in wildcards",
			base: "SELECT * FROM pages",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "path", Operator: "like", Value: "checkout"},
				},
			},
			expected: "SELECT * FROM pages WHERE (path LIKE '%' || 'checkout' || '%')",
		},
		{
			name: "in with mixed values",
			base: "SELECT * FROM pages",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "status", Operator: "in", Value: []interface{}{float64(200), "redirect"}},
				},
			},
			expected: "SELECT * FROM pages WHERE (status IN (200, 'redirect'))",
		},
		{
			name: "in with non-list value is skipped",
			base: "SELECT * FROM pages",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "status", Operator: "in", Value: "200"},
				},
			},
			expected: "SELECT * FROM pages",
		},
		{
			name: "unknown operator is skipped",
			base: "SELECT * FROM pages",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "status", Operator: "between", Value: float64(1)},
					{Column: "path", Operator: "ne", Value: "/"},
				},
			},
			expected: "SELECT * FROM pages WHERE (path != '/')",
		},
		{
			name: "string value quotes are doubled",
			base: "SELECT * FROM app_users",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "name", Operator: "eq", Value: "O'Brien"},
				},
			},
			expected: "SELECT * FROM app_users WHERE (name = 'O''Brien')",
		},
		{
			name: "comparison operators render symbols",
			base: "SELECT * FROM metrics",
			filters: &models.TableFilter{
				Conditions: []models.FilterCondition{
					{Column: "hits", Operator: "gte", Value: float64(10)},
					{Column: "hits", Operator: "lte", Value: float64(90)},
					{Column: "errors", Operator: "lt", Value: float64(5)},
				},
			},
			expected: "SELECT * FROM metrics WHERE (hits >= 10 AND hits <= 90 AND errors < 5)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplyFilters(tt.base, tt.filters))
		})
	}
}

func TestApplyFiltersDeterministic(t *testing.T) {
	filters := &models.TableFilter{
		Conditions: []models.FilterCondition{
			{Column: "a", Operator: "eq", Value: float64(1)},
			{Column: "b", Operator: "eq", Value: float64(2)},
			{Column: "c", Operator: "eq", Value: float64(3)},
		},
	}

	first := ApplyFilters("SELECT * FROM t", filters)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ApplyFilters("SELECT * FROM t", filters))
	}
	assert.Equal(t, "SELECT * FROM t WHERE (a = 1 AND b = 2 AND c = 3)", first)
}

func TestApplySort(t *testing.T) {
	tests := []struct {
		name      string
		column    string
		direction string
		expected  string
	}{
		{
			name:      "ascending by default",
			column:    "created_at",
			direction: "",
			expected:  "SELECT * FROM t ORDER BY created_at ASC",
		},
		{
			name:      "descending",
			column:    "hits",
			direction: "desc",
			expected:  "SELECT * FROM t ORDER BY hits DESC",
		},
		{
			name:      "column is sanitized before embedding",
			column:    "name; DROP TABLE t",
			direction: "ASC",
			expected:  "SELECT * FROM t ORDER BY nameDROPTABLEt ASC",
		},
		{
			name:      "fully invalid column leaves query unchanged",
			column:    "();--",
			direction: "ASC",
			expected:  "SELECT * FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ApplySort("SELECT * FROM t", tt.column, tt.direction))
		})
	}
}

func TestPaginateQuery(t *testing.T) {
	paged := PaginateQuery("SELECT id FROM t", 100, 50)

	assert.Contains(t, paged, "SELECT id FROM t")
	assert.Contains(t, paged, "ROW_NUMBER() OVER (ORDER BY (SELECT NULL)) AS rnum")
	assert.Contains(t, paged, fmt.Sprintf("rnum <= %d", 150))
	assert.Contains(t, paged, fmt.Sprintf("rnum > %d", 50))
}

func TestCountQuery(t *testing.T) {
	assert.Equal(t,
		"SELECT COUNT(*) AS total_count FROM (SELECT id FROM t) sub",
		CountQuery("SELECT id FROM t"))
}

func TestStructureQuery(t *testing.T) {
	assert.Equal(t,
		"SELECT * FROM (SELECT id FROM t) sub WHERE 1=0",
		StructureQuery("SELECT id FROM t"))
}
