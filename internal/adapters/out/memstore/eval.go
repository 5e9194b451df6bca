// internal/adapters/out/memstore/eval.go
package memstore

import (
	"reflect"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"optivista/internal/application/docstore"
)

func (s *Store) evalLocked(q *docstore.Query) []docstore.Record {
	col := s.docs[q.Collection()]

	ids := make([]string, 0, len(col))
	for id, f := range col {
		if matches(f, q.Filters()) && hasOrderFields(f, q.Orders()) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	orders := q.Orders()
	if len(orders) > 0 {
		sort.SliceStable(ids, func(i, j int) bool {
			a, b := col[ids[i]], col[ids[j]]
			for _, o := range orders {
				c, _ := compare(lookup(a, o.Field), lookup(b, o.Field))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if n := q.MaxResults(); n > 0 && len(ids) > n {
		ids = ids[:n]
	}

	out := make([]docstore.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, record(id, col[id]))
	}
	return out
}

func hasOrderFields(f fields, orders []docstore.Order) bool {
	for _, o := range orders {
		if lookup(f, o.Field) == nil {
			return false
		}
	}
	return true
}

func matches(f fields, filters []docstore.Filter) bool {
	for _, flt := range filters {
		if !match(lookup(f, flt.Field), flt.Op, normalize(flt.Value)) {
			return false
		}
	}
	return true
}

func match(have any, op string, want any) bool {
	if have == nil {
		return false
	}
	switch op {
	case "==":
		return reflect.DeepEqual(have, want)
	case "!=":
		return !reflect.DeepEqual(have, want)
	case "<", "<=", ">", ">=":
		c, ok := compare(have, want)
		if !ok {
			return false
		}
		switch op {
		case "<":
			return c < 0
		case "<=":
			return c <= 0
		case ">":
			return c > 0
		default:
			return c >= 0
		}
	case "in":
		return contains(want, have)
	case "array-contains":
		return contains(have, want)
	case "array-contains-any":
		list, ok := want.([]any)
		if !ok {
			return false
		}
		for _, w := range list {
			if contains(have, w) {
				return true
			}
		}
	}
	return false
}

func contains(list, v any) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, it := range items {
		if reflect.DeepEqual(it, v) {
			return true
		}
	}
	return false
}

// compare orders two JSON scalars of the same kind.
func compare(a, b any) (int, bool) {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func lookup(f fields, path string) any {
	var cur any = f
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[seg]
	}
	return cur
}

// normalize puts a filter value in the same JSON form stored fields use.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
