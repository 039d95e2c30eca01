package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSQL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims whitespace",
			input:    "   SELECT 1 FROM t   ",
			expected: "SELECT 1 FROM t",
		},
		{
			name:     "strips one trailing separator",
			input:    "SELECT 1 FROM t;",
			expected: "SELECT 1 FROM t",
		},
		{
			name:     "separator then whitespace",
			input:    "SELECT 1 FROM t ;  ",
			expected: "SELECT 1 FROM t",
		},
		{
			name:     "only one separator stripped",
			input:    "SELECT 1 FROM t;;",
			expected: "SELECT 1 FROM t;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeSQL(tt.input))
		})
	}
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "plain select passes",
			input:   "SELECT id, name FROM app_users",
			wantErr: nil,
		},
		{
			name:    "select with trailing separator passes",
			input:   "SELECT id FROM app_users;",
			wantErr: nil,
		},
		{
			name:    "mixed case select passes",
			input:   "  Select col_a, col_b From metrics  ",
			wantErr: nil,
		},
		{
			name:    "update rejected",
			input:   "UPDATE app_users SET name = 'x'",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "delete rejected",
			input:   "DELETE FROM app_users",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "drop rejected",
			input:   "DROP TABLE app_users",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "embedded separator rejected",
			input:   "SELECT 1; DROP TABLE app_users",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "line comment rejected",
			input:   "SELECT 1 FROM t -- hidden",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "block comment rejected",
			input:   "SELECT /* sneaky */ 1 FROM t",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "union rejected",
			input:   "SELECT a FROM t UNION SELECT b FROM u",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "exec rejected",
			input:   "SELECT 1 WHERE exec ping",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "system procedure rejected",
			input:   "SELECT * FROM t WHERE sp_help = 1",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "time delay rejected",
			input:   "SELECT 1 FROM t WHERE waitfor delay",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "numeric tautology rejected",
			input:   "SELECT * FROM t WHERE name = '' or 1=1",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "metadata schema rejected",
			input:   "SELECT * FROM information_schema.tables",
			wantErr: ErrInjection,
		},
		{
			name:    "system catalog rejected",
			input:   "SELECT name FROM sys.objects",
			wantErr: ErrInjection,
		},
		{
			name:    "empty string rejected",
			input:   "",
			wantErr: ErrNotReadOnly,
		},
		{
			name:    "non-sql rejected",
			input:   "hello world",
			wantErr: ErrNotReadOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSQL(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateSQLLength(t *testing.T) {
	long := "SELECT '" + strings.Repeat("a", MaxSQLLength) + "' FROM t"
	assert.ErrorIs(t, ValidateSQL(long), ErrQueryTooLong)

	within := "SELECT '" + strings.Repeat("a", 100) + "' FROM t"
	assert.NoError(t, ValidateSQL(within))
}

func TestEscapeLiteral(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "alpha", expected: "'alpha'"},
		{name: "single quote doubled", input: "O'Brien", expected: "'O''Brien'"},
		{name: "multiple quotes", input: "a'b'c", expected: "'a''b''c'"},
		{name: "empty", input: "", expected: "''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EscapeLiteral(tt.input))
		})
	}
}

func TestSafeSortColumn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain column", input: "created_at", expected: "created_at"},
		{name: "strips punctuation", input: "name; DROP TABLE t", expected: "nameDROPTABLEt"},
		{name: "strips quotes and spaces", input: "col' OR '1'='1", expected: "colOR11"},
		{name: "all invalid becomes empty", input: "()[];--", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SafeSortColumn(tt.input))
		})
	}
}
