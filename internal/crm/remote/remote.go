// Package remote describes the CRM operations the lookup engine and the
// endpoint services depend on.
package remote

import "context"

// Record is a schema-less CRM record. Keys are remote field names.
type Record map[string]interface{}

// ID returns the record's "Id" field, or "" when absent.
func (r Record) ID() string {
	return r.String("Id")
}

// String returns the named field when it holds a string.
func (r Record) String(field string) string {
	if v, ok := r[field].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Condition is a single equality filter.
type Condition struct {
	Field string
	Value string
	// Date marks the value as a date literal rather than a quoted string.
	Date bool
}

// Query is an equality-filtered read against one object.
type Query struct {
	Object  string
	Fields  []string
	Where   []Condition
	OrderBy string
	Limit   int
}

// Remote is the capability a CRM backend provides.
type Remote interface {
	// FindOne returns the first matching record, or a NOT_FOUND error.
	FindOne(ctx context.Context, q Query) (Record, error)
	FindMany(ctx context.Context, q Query) ([]Record, error)
	// Insert creates a record and returns the fields the CRM assigned, at least "Id".
	Insert(ctx context.Context, object string, fields Record) (Record, error)
	Update(ctx context.Context, object, id string, fields Record) error
}
