package directory

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// condType is a comparison operator usable on both supported dialects.
type condType string

const (
	opEqual condType = "="
	opLike  condType = "LIKE"
	opRaw   condType = "RAW"
)

type condition struct {
	field string
	op    condType
	// raw is an SQL fragment using $1..$n relative to args; it is renumbered on build.
	raw  string
	args []any
}

func whereCond(field string, op condType, value any) condition {
	return condition{field: field, op: op, args: []any{value}}
}

func whereRaw(raw string, args ...any) condition {
	return condition{op: opRaw, raw: raw, args: args}
}

type listQuery struct {
	table      string
	columns    []string
	countOnly  bool
	conditions []condition
	orderBy    []string
	limit      int // < 0 means unset
	offset     int // < 0 means unset
}

func sanitize(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// build renders the query with positional $n placeholders in increasing order,
// which both pgx and sqlite3 bind positionally.
func (q listQuery) build() (string, []any) {
	var b strings.Builder
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.countOnly {
		b.WriteString("SELECT COUNT(*)")
	} else {
		cols := make([]string, len(q.columns))
		for i, c := range q.columns {
			cols[i] = sanitize(c)
		}
		b.WriteString("SELECT ")
		b.WriteString(strings.Join(cols, ", "))
	}
	b.WriteString(" FROM ")
	b.WriteString(sanitize(q.table))

	var where []string
	for _, c := range q.conditions {
		switch c.op {
		case opRaw:
			frag := c.raw
			// Renumber from the highest index down so $1 never clobbers $10.
			placeholders := make([]string, len(c.args))
			for i, a := range c.args {
				placeholders[i] = next(a)
			}
			for i := len(c.args); i >= 1; i-- {
				frag = strings.ReplaceAll(frag, fmt.Sprintf("$%d", i), "\x00"+placeholders[i-1][1:])
			}
			where = append(where, "("+strings.ReplaceAll(frag, "\x00", "$")+")")
		default:
			where = append(where, fmt.Sprintf("%s %s %s", sanitize(c.field), c.op, next(c.args[0])))
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	if q.countOnly {
		return b.String(), args
	}

	if len(q.orderBy) > 0 {
		ob := make([]string, len(q.orderBy))
		for i, c := range q.orderBy {
			ob[i] = sanitize(c) + " ASC"
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(ob, ", "))
	}
	if q.limit >= 0 {
		b.WriteString(" LIMIT " + next(q.limit))
	}
	if q.offset >= 0 {
		b.WriteString(" OFFSET " + next(q.offset))
	}
	return b.String(), args
}
