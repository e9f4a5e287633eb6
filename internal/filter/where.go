package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/vburojevic/xctap/internal/capture"
)

// WhereClause represents a parsed --where condition
type WhereClause struct {
	Field    string
	Operator string
	Value    string
	regex    *regexp.Regexp // Compiled regex for ~ and !~ operators
	age      time.Duration  // Parsed duration for >= and <= on age
}

// ParseWhereClause parses a where clause like "app=com.example.myapp" or
// "target~iphone". Supported operators: =, !=, ~, !~, >=, <=, ^, $
// The >= and <= operators compare file age and take a duration value.
func ParseWhereClause(clause string) (*WhereClause, error) {
	// Try operators in order of length (longest first to avoid partial matches)
	operators := []string{"!~", ">=", "<=", "!=", "~", "=", "^", "$"}

	for _, op := range operators {
		idx := strings.Index(clause, op)
		if idx > 0 {
			field := strings.TrimSpace(clause[:idx])
			value := strings.TrimSpace(clause[idx+len(op):])

			if field == "" || value == "" {
				return nil, fmt.Errorf("invalid where clause: %s", clause)
			}

			wc := &WhereClause{
				Field:    field,
				Operator: op,
				Value:    value,
			}

			// Pre-compile regex for ~ and !~ operators
			if op == "~" || op == "!~" {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, fmt.Errorf("invalid regex in where clause '%s': %w", clause, err)
				}
				wc.regex = re
			}

			// Age comparisons take a duration, parsed up front
			if op == ">=" || op == "<=" {
				if strings.ToLower(field) != "age" {
					return nil, fmt.Errorf("operator %s in where clause '%s' only applies to age", op, clause)
				}
				d, err := time.ParseDuration(value)
				if err != nil {
					return nil, fmt.Errorf("invalid duration in where clause '%s': %w", clause, err)
				}
				wc.age = d
			}

			return wc, nil
		}
	}

	return nil, fmt.Errorf("no valid operator found in where clause: %s (use =, !=, ~, !~, >=, <=, ^, $)", clause)
}

// Match checks if a capture file matches this where clause
func (wc *WhereClause) Match(info capture.FileInfo, now time.Time) bool {
	switch wc.Operator {
	case ">=": // At least this old
		return now.Sub(info.ModTime) >= wc.age
	case "<=": // At most this old
		return now.Sub(info.ModTime) <= wc.age
	}

	fieldValue := wc.getFieldValue(info)

	switch wc.Operator {
	case "=":
		return fieldValue == wc.Value
	case "!=":
		return fieldValue != wc.Value
	case "~": // Contains (regex)
		if wc.regex != nil {
			return wc.regex.MatchString(fieldValue)
		}
		return strings.Contains(fieldValue, wc.Value)
	case "!~": // Not contains (regex)
		if wc.regex != nil {
			return !wc.regex.MatchString(fieldValue)
		}
		return !strings.Contains(fieldValue, wc.Value)
	case "^": // Starts with
		return strings.HasPrefix(fieldValue, wc.Value)
	case "$": // Ends with
		return strings.HasSuffix(fieldValue, wc.Value)
	}

	return false
}

// getFieldValue extracts the field value from a capture file's header
func (wc *WhereClause) getFieldValue(info capture.FileInfo) string {
	switch strings.ToLower(wc.Field) {
	case "session":
		return info.Header.SessionID
	case "kind":
		return info.Header.Kind
	case "target":
		return info.Header.Target
	case "app":
		return info.Header.App
	case "mode":
		return info.Header.Mode
	case "file":
		return filepath.Base(info.Path)
	default:
		return ""
	}
}

// WhereFilter is a filter that applies multiple where clauses (AND logic)
type WhereFilter struct {
	clauses []*WhereClause
}

// NewWhereFilter creates a filter from multiple where clause strings
func NewWhereFilter(whereClauses []string) (*WhereFilter, error) {
	if len(whereClauses) == 0 {
		return nil, nil
	}

	filter := &WhereFilter{}
	for _, clause := range whereClauses {
		wc, err := ParseWhereClause(clause)
		if err != nil {
			return nil, err
		}
		filter.clauses = append(filter.clauses, wc)
	}

	return filter, nil
}

// Match returns true if the capture file matches ALL where clauses (AND logic)
func (f *WhereFilter) Match(info capture.FileInfo, now time.Time) bool {
	for _, clause := range f.clauses {
		if !clause.Match(info, now) {
			return false
		}
	}
	return true
}
