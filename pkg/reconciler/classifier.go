package reconciler

import (
	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/errors"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// obs is one variant's observation of a single leaf value.
type obs struct {
	variant metadata.Variant
	value   metadata.Value
}

// class is an equivalence class of observations: one distinct value and
// the architectures that observed it.
type class struct {
	value metadata.Value
	archs axis.Set
}

// partition groups observations into equivalence classes by structural
// equality. Observed values may be arbitrary decoded composites, so
// grouping is a linear scan against each existing class rather than a
// map lookup. Classes keep first-seen order, which resolveValue relies
// on only up to the axis test; diagnostics sort before reporting.
func partition(observations []obs) []*class {
	var classes []*class
outer:
	for _, o := range observations {
		for _, c := range classes {
			if c.value.Equal(o.value) {
				c.archs.Add(o.variant.Arch)
				continue outer
			}
		}
		classes = append(classes, &class{
			value: o.value,
			archs: axis.NewSet(o.variant.Arch),
		})
	}
	return classes
}

// errorClasses renders classes for a conflict report.
func errorClasses(classes []*class) []errors.Class {
	out := make([]errors.Class, len(classes))
	for i, c := range classes {
		tags := c.archs.Sorted()
		archs := make([]string, len(tags))
		for j, t := range tags {
			archs[j] = string(t)
		}
		out[i] = errors.Class{Value: c.value.Render(), Archs: archs}
	}
	return out
}

// resolveValue collapses the per-variant observations of one leaf.
// One class is unanimity. Two classes are legal when they split the
// architectures present in this run along a single hardware axis, in
// which case the leaf becomes a deferred runtime selection with the
// 32-bit or little-endian side first. Anything else goes through the
// section's escape-hatch policy and then becomes a conflict.
func (r *run) resolveValue(entity, field string, observations []obs, pol *policy) (metadata.Value, error) {
	classes := partition(observations)
	switch len(classes) {
	case 0:
		return metadata.Value{}, nil
	case 1:
		return classes[0].value, nil
	case 2:
		if split, ok := axis.Resolve(classes[0].archs, classes[1].archs, r.present); ok {
			a, b := classes[0].value, classes[1].value
			if split.Swapped {
				a, b = b, a
			}
			return metadata.Deferred(split.Axis, a.Raw, b.Raw), nil
		}
	}

	if v, ok := pol.escapeHatch(entity, classes); ok {
		return v, nil
	}
	return metadata.Value{}, errors.NewConflictError(entity, field, errorClasses(classes))
}
