package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps compare lexicographically
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func marshalMap(m map[string]interface{}) sql.NullString {
	if len(m) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func unmarshalMap(s sql.NullString) map[string]interface{} {
	if !s.Valid || s.String == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil
	}
	return m
}

// whereBuilder accumulates AND-ed conditions with numbered placeholders
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (w *whereBuilder) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *whereBuilder) in(column string, values []string) {
	if len(values) == 0 {
		return
	}
	marks := make([]string, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		marks[i] = fmt.Sprintf("$%d", len(w.args))
	}
	w.conds = append(w.conds, fmt.Sprintf("%s IN (%s)", column, strings.Join(marks, ", ")))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// bind appends an argument outside the WHERE clause and returns its placeholder
func (w *whereBuilder) bind(v interface{}) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}
