package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Filter operators understood by the OpenProject filter DSL.
const (
	OperatorEquals = "="
	OperatorOpen   = "o"
	OperatorClosed = "c"
)

// StatusClass groups statuses coarsely instead of by id.
type StatusClass string

const (
	StatusOpen   StatusClass = "open"
	StatusClosed StatusClass = "closed"
	StatusAll    StatusClass = "all"
)

// ParseStatusClass converts a tool argument to a StatusClass.
// An empty string selects the open class.
func ParseStatusClass(s string) (StatusClass, error) {
	switch StatusClass(s) {
	case "", StatusOpen:
		return StatusOpen, nil
	case StatusClosed:
		return StatusClosed, nil
	case StatusAll:
		return StatusAll, nil
	default:
		return "", NewPreconditionError("invalid status %q: must be 'open', 'closed' or 'all'", s)
	}
}

// Predicate is one {field: {operator, values}} entry of a filter.
type Predicate struct {
	Field    string
	Operator string
	Values   []string
}

// MarshalJSON renders the predicate as a single-key object.
func (p Predicate) MarshalJSON() ([]byte, error) {
	values := p.Values
	if values == nil {
		values = []string{}
	}
	return json.Marshal(map[string]any{
		p.Field: map[string]any{
			"operator": p.Operator,
			"values":   values,
		},
	})
}

// Filter is an ordered conjunction of predicates.
// The zero value is an empty filter and is ready to use.
type Filter struct {
	predicates []Predicate
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Status adds a status class predicate. StatusAll adds nothing: the service
// treats an absent status filter differently from one with no values.
func (f *Filter) Status(class StatusClass) *Filter {
	switch class {
	case StatusOpen:
		f.predicates = append(f.predicates, Predicate{Field: "status", Operator: OperatorOpen, Values: []string{}})
	case StatusClosed:
		f.predicates = append(f.predicates, Predicate{Field: "status", Operator: OperatorClosed, Values: []string{}})
	}
	return f
}

// Equals adds an equality predicate. Every value is stringified since the
// filter DSL is string-typed.
func (f *Filter) Equals(field string, values ...any) *Filter {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, FilterValue(v))
	}
	f.predicates = append(f.predicates, Predicate{Field: field, Operator: OperatorEquals, Values: strs})
	return f
}

// EqualsIf adds an equality predicate only when ok is true.
func (f *Filter) EqualsIf(ok bool, field string, values ...any) *Filter {
	if !ok {
		return f
	}
	return f.Equals(field, values...)
}

// Predicates returns a copy of the predicates in insertion order.
func (f *Filter) Predicates() []Predicate {
	if f == nil {
		return nil
	}
	out := make([]Predicate, len(f.predicates))
	copy(out, f.predicates)
	return out
}

// Len returns the number of predicates.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.predicates)
}

// Encode serializes the filter for the filters query parameter.
// It returns false when there is nothing to send; callers must then omit the
// parameter rather than send "[]".
func (f *Filter) Encode() (string, bool) {
	if f.Len() == 0 {
		return "", false
	}
	data, err := json.Marshal(f.predicates)
	if err != nil {
		// Predicates hold only strings, marshaling cannot fail.
		panic(fmt.Sprintf("filter: %v", err))
	}
	return string(data), true
}

// FilterValue stringifies a filter value.
func FilterValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "t"
		}
		return "f"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
