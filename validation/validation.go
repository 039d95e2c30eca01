package validation

import (
	"errors"
	"regexp"
	"strings"
)

// MaxSQLLength is the hard ceiling on statement size.
const MaxSQLLength = 10000

var (
	ErrNotReadOnly  = errors.New("unsafe SQL detected: only read-only SELECT queries are permitted")
	ErrInjection    = errors.New("potential SQL injection detected: query rejected")
	ErrQueryTooLong = errors.New("query too long: maximum length is 10,000 characters")
)

// forbiddenTokens covers statement separators, comment delimiters, DML/DDL
// verbs, execution verbs, variable declarations, built-ins abused in blind
// injection, time-delay functions and vendor-internal package prefixes.
var forbiddenTokens = []string{
	`;`,
	`--`,
	`/\*`,
	`\*/`,
	`drop\b`,
	`delete\b`,
	`truncate\b`,
	`insert\b`,
	`update\b`,
	`alter\b`,
	`create\b`,
	`grant\b`,
	`revoke\b`,
	`union\b`,
	`exec\b`,
	`execute\b`,
	`sp_\w+`,
	`xp_\w+`,
	`declare\b`,
	`char\s*\(`,
	`ascii\s*\(`,
	`substring\s*\(`,
	`concat\s*\(`,
	`cast\s*\(`,
	`convert\s*\(`,
	`@@\w+`,
	`waitfor\b`,
	`benchmark\b`,
	`sleep\s*\(`,
	`pg_sleep\s*\(`,
	`dbms_\w+`,
	`utl_\w+`,
	`'\s*or\s*'\d+'\s*=\s*'\d+'?`,
	`\s+or\s+\d+\s*=\s*\d+`,
	`or\s*'\d+'\s*=\s*'\d+'?`,
	`'\s*or\s*\d+\s*=\s*\d+`,
}

var forbiddenPattern = regexp.MustCompile(`(?is)` + strings.Join(forbiddenTokens, "|"))

// injectionPatterns catches tautology and metadata-access shapes that slip
// past the token scan.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)'\s*or\s+'\d+'\s*=\s*'\d+'`),
	regexp.MustCompile(`(?i)'\s*or\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)'\s*and\s+'\d+'\s*=\s*'\d+'`),
	regexp.MustCompile(`(?i)'\s*;\s*select\s+`),
	regexp.MustCompile(`(?i)'\s*union\s+all\s+select\s+`),
	regexp.MustCompile(`(?i)information_schema\.`),
	regexp.MustCompile(`(?i)sys\.`),
	regexp.MustCompile(`(?i)dual\s+where`),
	regexp.MustCompile(`(?i)from\s+dual\s+where`),
}

// SanitizeSQL trims surrounding whitespace and at most one trailing
// statement separator, which would otherwise break subquery wrapping.
func SanitizeSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	trimmed = strings.TrimSuffix(trimmed, ";")
	return strings.TrimSpace(trimmed)
}

// IsSafeSQL reports whether the statement is a plain read-only SELECT with
// no forbidden tokens. This is a deny-list heuristic, not a SQL parser; it
// raises the bar against destructive statements and naive injection and is
// meant to be combined with a read-only database account.
func IsSafeSQL(sql string) bool {
	stripped := strings.ToLower(SanitizeSQL(sql))
	if !strings.HasPrefix(stripped, "select") {
		return false
	}
	return !forbiddenPattern.MatchString(stripped)
}

// ValidateSQL classifies a candidate statement, returning nil when it is
// safe to run and a caller-facing rejection reason otherwise. Pure; never
// rewrites the statement.
func ValidateSQL(sql string) error {
	sanitized := SanitizeSQL(sql)

	if !IsSafeSQL(sanitized) {
		return ErrNotReadOnly
	}

	lowered := strings.ToLower(sanitized)
	for _, pattern := range injectionPatterns {
		if pattern.MatchString(lowered) {
			return ErrInjection
		}
	}

	if len(sanitized) > MaxSQLLength {
		return ErrQueryTooLong
	}

	return nil
}

// EscapeLiteral renders a string as a quoted SQL literal with embedded
// single quotes doubled. This is the single escaping primitive every
// literal-embedding site must go through.
func EscapeLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

var sortColumnPattern = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SafeSortColumn strips everything but alphanumerics and underscores so a
// caller-supplied sort column cannot smuggle SQL through ORDER BY.
func SafeSortColumn(column string) string {
	return sortColumnPattern.ReplaceAllString(column, "")
}
