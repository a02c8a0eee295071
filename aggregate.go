package clusterstats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Operator is an aggregate operator applied to the values of a group.
type Operator string

// OperatorSum adds the aggregate field across each group. It is the only
// supported operator.
const OperatorSum Operator = "sum"

// ParseOperator resolves an operator name. "sum" and "+" both select
// [OperatorSum]; anything else returns an [UnsupportedOperatorError].
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "sum", "+":
		return OperatorSum, nil
	default:
		return "", &UnsupportedOperatorError{Operator: s}
	}
}

// AggregateSpec selects how successful payloads are grouped and reduced.
type AggregateSpec struct {
	// GroupBy lists the payload fields whose values form the group key.
	// Nested fields may be addressed with dot notation ("build.version").
	GroupBy []string

	// Field is the numeric payload field reduced within each group.
	Field string

	// Operator is the reduction applied to Field.
	Operator Operator
}

// DefaultAggregateSpec groups by (Application, Version) and sums Success_Count.
func DefaultAggregateSpec() AggregateSpec {
	return AggregateSpec{
		GroupBy:  []string{"Application", "Version"},
		Field:    "Success_Count",
		Operator: OperatorSum,
	}
}

// Validate checks the spec without looking at any payload.
// The operator is checked first.
func (s AggregateSpec) Validate() error {
	if _, err := ParseOperator(string(s.Operator)); err != nil {
		return err
	}
	if len(s.GroupBy) == 0 {
		return errors.New("aggregation requires at least one group-by field")
	}
	for i, f := range s.GroupBy {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("aggregation group-by field %d is empty", i)
		}
	}
	if strings.TrimSpace(s.Field) == "" {
		return errors.New("aggregation field is required")
	}
	return nil
}

// Number is an aggregate value. It stays an exact integer while every
// summed value is an integer and the sum fits in an int64, and falls back
// to float64 otherwise.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

// IntNumber returns an integer Number.
func IntNumber(i int64) Number {
	return Number{i: i}
}

// FloatNumber returns a floating point Number.
func FloatNumber(f float64) Number {
	return Number{f: f, isFloat: true}
}

// Int64 returns the value and true if the number is an exact integer.
func (n Number) Int64() (int64, bool) {
	if n.isFloat {
		return 0, false
	}
	return n.i, true
}

// Float64 returns the value as a float64.
func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

// String renders integers without a decimal point and floats in their
// shortest exact form.
func (n Number) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'f', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

func (n Number) add(m Number) Number {
	if !n.isFloat && !m.isFloat {
		sum := n.i + m.i
		overflow := (n.i > 0 && m.i > 0 && sum < 0) || (n.i < 0 && m.i < 0 && sum >= 0)
		if !overflow {
			return Number{i: sum}
		}
	}
	return FloatNumber(n.Float64() + m.Float64())
}

// Row is one group of the aggregated table.
type Row struct {
	// Key holds the group-by values, in GroupBy order.
	Key []string

	// Value is the reduced aggregate field.
	Value Number
}

// Table is the result of [Aggregate]. Rows are unique by key and sorted
// lexicographically by key.
type Table struct {
	GroupBy []string
	Field   string
	Rows    []Row
}

// Lookup returns the value of the row with the given key.
func (t *Table) Lookup(key ...string) (Number, bool) {
	if t == nil {
		return Number{}, false
	}
	for _, r := range t.Rows {
		if slices.Equal(r.Key, key) {
			return r.Value, true
		}
	}
	return Number{}, false
}

// Aggregate groups payloads by spec.GroupBy and sums spec.Field per group.
//
// [AggregateSpec.Validate] runs before any payload is read, so an unsupported
// operator fails even for an empty input. A payload missing a field, or
// holding a non-numeric aggregate value, fails the whole call with a
// [MalformedPayloadError]; no partial table is returned.
func Aggregate(payloads []Payload, spec AggregateSpec) (*Table, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	type group struct {
		key   []string
		kinds []byte
		value Number
	}
	groups := make(map[string]*group)

	for i, p := range payloads {
		key := make([]string, len(spec.GroupBy))
		kinds := make([]byte, len(spec.GroupBy))
		for j, field := range spec.GroupBy {
			raw, ok := lookupField(p, field)
			if !ok {
				return nil, &MalformedPayloadError{Index: i, Field: field, Reason: "is missing"}
			}
			s, kind, err := renderKey(raw)
			if err != nil {
				return nil, &MalformedPayloadError{Index: i, Field: field, Reason: err.Error()}
			}
			key[j], kinds[j] = s, kind
		}

		raw, ok := lookupField(p, spec.Field)
		if !ok {
			return nil, &MalformedPayloadError{Index: i, Field: spec.Field, Reason: "is missing"}
		}
		n, err := toNumber(raw)
		if err != nil {
			return nil, &MalformedPayloadError{Index: i, Field: spec.Field, Reason: err.Error()}
		}

		id := groupID(key, kinds)
		if g, ok := groups[id]; ok {
			g.value = g.value.add(n)
		} else {
			groups[id] = &group{key: key, kinds: kinds, value: n}
		}
	}

	sorted := make([]*group, 0, len(groups))
	for _, g := range groups {
		sorted = append(sorted, g)
	}
	// keys that render alike but differ in kind order by kind
	slices.SortFunc(sorted, func(a, b *group) int {
		if c := slices.Compare(a.key, b.key); c != 0 {
			return c
		}
		return slices.Compare(a.kinds, b.kinds)
	})
	rows := make([]Row, len(sorted))
	for i, g := range sorted {
		rows[i] = Row{Key: g.key, Value: g.value}
	}

	return &Table{
		GroupBy: slices.Clone(spec.GroupBy),
		Field:   spec.Field,
		Rows:    rows,
	}, nil
}

// lookupField returns the value at name. An exact key match wins; otherwise
// a dotted name walks nested objects.
func lookupField(p Payload, name string) (any, bool) {
	if v, ok := p[name]; ok {
		return v, true
	}
	if !strings.Contains(name, ".") {
		return nil, false
	}

	var current any = map[string]any(p)
	for _, part := range strings.Split(name, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Key kinds. A number 1 and a string "1" render alike but group apart.
const (
	kindNull   byte = 'z'
	kindString byte = 's'
	kindNumber byte = 'n'
	kindBool   byte = 'b'
)

// groupID joins kind-tagged quoted key parts so that ("a,b", "c") and
// ("a", "b,c") differ, as do 1 and "1".
func groupID(key []string, kinds []byte) string {
	quoted := make([]string, len(key))
	for i, k := range key {
		quoted[i] = string(kinds[i]) + strconv.Quote(k)
	}
	return strings.Join(quoted, ",")
}

// renderKey converts a scalar group-by value to its string form and kind.
func renderKey(v any) (string, byte, error) {
	switch v := v.(type) {
	case nil:
		return "", kindNull, nil
	case string:
		return v, kindString, nil
	case json.Number:
		return v.String(), kindNumber, nil
	case bool:
		return strconv.FormatBool(v), kindBool, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), kindNumber, nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), kindNumber, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), kindNumber, nil
	default:
		return "", 0, fmt.Errorf("is not a scalar (%T)", v)
	}
}

// toNumber converts an aggregate value. Strings are not coerced.
func toNumber(v any) (Number, error) {
	switch v := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return IntNumber(i), nil
		}
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return Number{}, fmt.Errorf("is not a number (%q)", v.String())
		}
		return FloatNumber(f), nil
	case int:
		return IntNumber(int64(v)), nil
	case int8:
		return IntNumber(int64(v)), nil
	case int16:
		return IntNumber(int64(v)), nil
	case int32:
		return IntNumber(int64(v)), nil
	case int64:
		return IntNumber(v), nil
	case uint:
		return fromUint(uint64(v)), nil
	case uint8:
		return IntNumber(int64(v)), nil
	case uint16:
		return IntNumber(int64(v)), nil
	case uint32:
		return IntNumber(int64(v)), nil
	case uint64:
		return fromUint(v), nil
	case float32:
		return toFloatNumber(float64(v))
	case float64:
		return toFloatNumber(v)
	case nil:
		return Number{}, errors.New("is null")
	default:
		return Number{}, fmt.Errorf("is not numeric (%s)", typeName(v))
	}
}

func fromUint(u uint64) Number {
	if u > math.MaxInt64 {
		return FloatNumber(float64(u))
	}
	return IntNumber(int64(u))
}

func toFloatNumber(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, fmt.Errorf("is not finite (%v)", f)
	}
	return FloatNumber(f), nil
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}
