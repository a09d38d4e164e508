package qbo

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000
)

// QueryOptions are the structured search parameters translated into the
// QuickBooks SQL-like query language.
type QueryOptions struct {
	// NamePrefix matches entities whose name field starts with the
	// given string (DisplayName for customers, Name for accounts).
	NamePrefix string

	// ActiveOnly restricts results to active entities.
	ActiveOnly bool

	// OrderBy is the field to sort by; empty means provider default.
	OrderBy    string
	Descending bool

	// StartPosition is 1-based; zero means start at 1.
	StartPosition int

	// MaxResults is capped at 1000; zero means 20.
	MaxResults int
}

// BuildQuery renders a SELECT statement for the entity kind. Conditions
// are joined with AND; pagination clauses are always present.
func BuildQuery(kind EntityKind, opts QueryOptions) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", kind.Wrapper)

	var conds []string
	if opts.ActiveOnly {
		conds = append(conds, "Active = true")
	}
	if opts.NamePrefix != "" {
		conds = append(conds, fmt.Sprintf("%s LIKE '%s%%'", kind.NameField, escapeQueryLiteral(opts.NamePrefix)))
	}
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if opts.OrderBy != "" {
		sb.WriteString(" ORDERBY ")
		sb.WriteString(opts.OrderBy)
		if opts.Descending {
			sb.WriteString(" DESC")
		}
	}

	start := opts.StartPosition
	if start <= 0 {
		start = 1
	}
	size := opts.MaxResults
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	fmt.Fprintf(&sb, " STARTPOSITION %d MAXRESULTS %d", start, size)

	return sb.String()
}

// escapeQueryLiteral escapes single quotes inside a string literal.
func escapeQueryLiteral(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
