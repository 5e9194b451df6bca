// internal/application/docstore/query.go
package docstore

import "strings"

// Filter is one where-clause of a Query.
type Filter struct {
	Field string
	Op    string // "==", "!=", "<", "<=", ">", ">=", "in", "array-contains"
	Value any
}

// Order is one order-by clause of a Query.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a collection query. It is immutable: every builder method
// returns a new *Query. Subscribers compare descriptors by pointer, so callers
// build a Query once and keep handing the same pointer around until the
// query really changes.
type Query struct {
	collection string
	filters    []Filter
	orders     []Order
	limit      int
}

func NewQuery(collection string) *Query {
	return &Query{collection: strings.Trim(strings.TrimSpace(collection), "/")}
}

func (q *Query) clone() *Query {
	cp := &Query{
		collection: q.collection,
		limit:      q.limit,
	}
	cp.filters = append([]Filter(nil), q.filters...)
	cp.orders = append([]Order(nil), q.orders...)
	return cp
}

func (q *Query) Where(field, op string, value any) *Query {
	cp := q.clone()
	cp.filters = append(cp.filters, Filter{Field: field, Op: op, Value: value})
	return cp
}

func (q *Query) OrderBy(field string, desc bool) *Query {
	cp := q.clone()
	cp.orders = append(cp.orders, Order{Field: field, Desc: desc})
	return cp
}

func (q *Query) Limit(n int) *Query {
	cp := q.clone()
	if n < 0 {
		n = 0
	}
	cp.limit = n
	return cp
}

func (q *Query) Collection() string { return q.collection }

func (q *Query) Filters() []Filter { return append([]Filter(nil), q.filters...) }

func (q *Query) Orders() []Order { return append([]Order(nil), q.orders...) }

// MaxResults returns the limit, 0 meaning unlimited.
func (q *Query) MaxResults() int { return q.limit }

// Path is the canonical path used for access gating and diagnostics.
func (q *Query) Path() string { return q.collection }
