package salesforce

import (
	"fmt"
	"regexp"
	"strings"

	"crm-gateway/internal/crm/remote"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)*$`)
	idPattern         = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	datePattern       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	orderPattern      = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_.]*)(\s+(?i:ASC|DESC))?$`)
)

var soqlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// EscapeString quotes s as a SOQL string literal.
func EscapeString(s string) string {
	return "'" + soqlEscaper.Replace(s) + "'"
}

// DateLiteral validates s as YYYY-MM-DD; SOQL date literals are unquoted.
func DateLiteral(s string) (string, error) {
	if !datePattern.MatchString(s) {
		return "", fmt.Errorf("invalid date literal %q: expected YYYY-MM-DD", s)
	}
	return s, nil
}

// BuildQuery renders q as a SOQL statement. Field and object names are
// checked against the identifier grammar; values are always escaped.
func BuildQuery(q remote.Query) (string, error) {
	if !identifierPattern.MatchString(q.Object) {
		return "", fmt.Errorf("invalid object name %q", q.Object)
	}

	fields := q.Fields
	if len(fields) == 0 {
		fields = []string{"Id"}
	}
	for _, f := range fields {
		if !identifierPattern.MatchString(f) {
			return "", fmt.Errorf("invalid field name %q", f)
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Object)

	for i, cond := range q.Where {
		if !identifierPattern.MatchString(cond.Field) {
			return "", fmt.Errorf("invalid field name %q", cond.Field)
		}

		literal := EscapeString(cond.Value)
		if cond.Date {
			var err error
			if literal, err = DateLiteral(cond.Value); err != nil {
				return "", err
			}
		}

		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(cond.Field)
		b.WriteString(" = ")
		b.WriteString(literal)
	}

	if q.OrderBy != "" {
		if !orderPattern.MatchString(q.OrderBy) {
			return "", fmt.Errorf("invalid order clause %q", q.OrderBy)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	return b.String(), nil
}
