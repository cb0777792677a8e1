package store

import (
	"chatit/domain"
	"chatit/errors"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"
)

// normalize converts fields to the canonical protobuf Struct representation:
// numbers become float64, lists []any and records map[string]any.
// Both backends store exactly what a badger round trip would give back.
func normalize(fields map[string]any) (map[string]any, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnsupportedField, err)
	}
	return s.AsMap(), nil
}

func normalizeValue(v any) (any, error) {
	value, err := structpb.NewValue(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrUnsupportedField, err)
	}
	return value.AsInterface(), nil
}

func cloneFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneFields(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneDocument(doc domain.Document) domain.Document {
	return domain.Document{Path: doc.Path, ID: doc.ID, Fields: cloneFields(doc.Fields)}
}

// typeRank orders values of different types: absent, null, bool, number, string, other.
func typeRank(v any, present bool) int {
	if !present {
		return 0
	}
	switch v.(type) {
	case nil:
		return 1
	case bool:
		return 2
	case float64:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func compareValues(a any, aOK bool, b any, bOK bool) int {
	ra, rb := typeRank(a, aOK), typeRank(b, bOK)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	default:
		return 0
	}
}

// matches applies every filter. A range or equality filter only matches values of the same type.
func matches(filters []domain.Filter, fields map[string]any) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || typeRank(v, true) != typeRank(f.Value, true) {
			return false
		}
		c := compareValues(v, true, f.Value, true)
		switch f.Op {
		case domain.OpEqual:
			if c != 0 {
				return false
			}
		case domain.OpGreaterOrEqual:
			if c < 0 {
				return false
			}
		case domain.OpLessOrEqual:
			if c > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// prepare validates a query and normalizes its filter values.
func prepare(query domain.Query) (domain.Query, error) {
	if query.Collection == "" || strings.HasSuffix(query.Collection, "/") {
		return domain.Query{}, fmt.Errorf("%w: collection %q", errors.ErrInvalidPath, query.Collection)
	}
	filters := make([]domain.Filter, 0, len(query.Filters))
	for _, f := range query.Filters {
		value, err := normalizeValue(f.Value)
		if err != nil {
			return domain.Query{}, err
		}
		filters = append(filters, domain.Filter{Field: f.Field, Op: f.Op, Value: value})
	}
	query.Filters = filters
	return query, nil
}

// apply filters and orders the documents of one collection.
// Documents lacking the order field sort first.
func apply(query domain.Query, docs []domain.Document) []domain.Document {
	out := slices.DeleteFunc(docs, func(d domain.Document) bool {
		return !matches(query.Filters, d.Fields)
	})
	slices.SortStableFunc(out, func(a, b domain.Document) int {
		c := 0
		if query.OrderBy != "" {
			av, aOK := a.Fields[query.OrderBy]
			bv, bOK := b.Fields[query.OrderBy]
			c = compareValues(av, aOK, bv, bOK)
		}
		if c == 0 {
			c = strings.Compare(a.ID, b.ID)
		}
		if query.Descending {
			return -c
		}
		return c
	})
	return out
}

func inCollection(collection string, doc domain.Document) bool {
	parent, _, ok := domain.SplitPath(doc.Path)
	return ok && parent == collection
}
