package metadata

import (
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
)

// Value is a leaf in a record: either a single concrete value observed by
// (or agreed on by) the scans, or a deferred selection between two values
// along a hardware axis. A merged record set contains only concrete or
// deferred leaves; a conflict never reaches a Value.
type Value struct {
	// Raw holds the concrete value when the leaf is not deferred.
	// After YAML decoding it is one of nil, bool, string, an integer
	// type, float64, []any or map[string]any.
	Raw any

	// Axis is set for deferred leaves. A holds the value for the 32-bit
	// (or little-endian) side, B the 64-bit (or big-endian) side.
	Axis axis.Axis
	A    any
	B    any
}

// String builds a concrete Value from a string.
func String(s string) Value { return Value{Raw: s} }

// Int builds a concrete Value from an integer.
func Int(i int64) Value { return Value{Raw: i} }

// Deferred builds a deferred Value selecting a or b along ax at runtime.
func Deferred(ax axis.Axis, a, b any) Value {
	return Value{Axis: ax, A: a, B: b}
}

// IsZero reports whether the value is unset. goccy/go-yaml consults this
// for omitempty handling.
func (v Value) IsZero() bool {
	return v.Raw == nil && v.Axis == ""
}

// IsDeferred reports whether the leaf is a runtime axis selection.
func (v Value) IsDeferred() bool {
	return v.Axis != ""
}

// StringValue returns the concrete value as a string when it is one.
func (v Value) StringValue() (string, bool) {
	s, ok := v.Raw.(string)
	return s, ok
}

// Equal reports structural equality. Deferred values are equal only when
// axis and both sides match.
func (v Value) Equal(o Value) bool {
	if v.Axis != o.Axis {
		return false
	}
	if v.Axis != "" {
		return equalAny(v.A, o.A) && equalAny(v.B, o.B)
	}
	return equalAny(v.Raw, o.Raw)
}

// Render formats the value for diagnostics. Map keys render in sorted
// order so conflict reports are stable.
func (v Value) Render() string {
	if v.IsDeferred() {
		return fmt.Sprintf("%s(%s, %s)", v.Axis, renderAny(v.A), renderAny(v.B))
	}
	return renderAny(v.Raw)
}

// selectorKey is the mapping key marking a deferred leaf on disk.
const selectorKey = "selector"

// MarshalYAML emits the concrete value directly, or a
// {selector, a, b} mapping for deferred leaves.
func (v Value) MarshalYAML() (any, error) {
	if v.IsDeferred() {
		return yaml.MapSlice{
			{Key: selectorKey, Value: string(v.Axis)},
			{Key: "a", Value: v.A},
			{Key: "b", Value: v.B},
		}, nil
	}
	return v.Raw, nil
}

// UnmarshalYAML accepts either shape emitted by MarshalYAML. Only the
// exact {selector, a, b} mapping is a deferred leaf; a scanned composite
// that happens to contain a "selector" key stays a concrete value.
func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if m, ok := raw.(map[string]any); ok && len(m) == 3 {
		sel, selOK := m[selectorKey].(string)
		a, aOK := m["a"]
		b, bOK := m["b"]
		if selOK && aOK && bOK {
			v.Axis = axis.Axis(sel)
			v.A = a
			v.B = b
			v.Raw = nil
			return nil
		}
	}
	v.Raw = raw
	return nil
}

// equalAny is the structural-equality predicate used to partition
// observed values into equivalence classes. It never assumes values are
// hashable or identical in dynamic type: integers compare across the
// int/int64/uint64/float64 representations YAML decoding produces, and
// composites compare element-wise.
func equalAny(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if an, aok := asNumber(a); aok {
		bn, bok := asNumber(b)
		return bok && an == bn
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !equalAny(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !equalAny(x, y) {
				return false
			}
		}
		return true
	}

	return a == b
}

// number is a normalized numeric representation. Floats that hold an
// integral value compare equal to the same integer.
type number struct {
	neg  bool
	mag  uint64
	f    float64
	isFP bool
}

func asNumber(v any) (number, bool) {
	switch n := v.(type) {
	case int:
		return intNumber(int64(n)), true
	case int8:
		return intNumber(int64(n)), true
	case int16:
		return intNumber(int64(n)), true
	case int32:
		return intNumber(int64(n)), true
	case int64:
		return intNumber(n), true
	case uint:
		return number{mag: uint64(n)}, true
	case uint8:
		return number{mag: uint64(n)}, true
	case uint16:
		return number{mag: uint64(n)}, true
	case uint32:
		return number{mag: uint64(n)}, true
	case uint64:
		return number{mag: n}, true
	case float32:
		return floatNumber(float64(n)), true
	case float64:
		return floatNumber(n), true
	}
	return number{}, false
}

func intNumber(i int64) number {
	if i < 0 {
		return number{neg: true, mag: uint64(-i)}
	}
	return number{mag: uint64(i)}
}

func floatNumber(f float64) number {
	if f == float64(int64(f)) {
		return intNumber(int64(f))
	}
	return number{f: f, isFP: true}
}

// renderAny formats an arbitrary decoded value deterministically.
func renderAny(v any) string {
	switch t := v.(type) {
	case nil:
		return "~"
	case string:
		return fmt.Sprintf("%q", t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, renderAny(t[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = renderAny(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}
