package reconciler

import (
	"strings"

	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// The sections in this file carry a single axis-sensitive leaf per
// entity (an enumerator value, a type encoding) surrounded by
// descriptive metadata. The leaf goes through the equivalence
// classifier; an exception-supplied value short-circuits classification
// entirely, since the hand-authored value is authoritative no matter how
// the scans disagreed.

// mergeEnums merges enumerator values. Names matching the enum section's
// declared escape-hatch patterns (a "Count" suffix) collapse conflicting
// numeric values to the maximum instead of failing.
func (r *run) mergeEnums() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.EnumValue {
		return d.Enum
	})
	excs := r.exc.Definitions.Enum
	pol := policyFor(sectionEnum)

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.EnumValue{}
		if len(observations) == 0 {
			// An enumerator asserted to exist but never scanned, for
			// example one from an SDK unavailable to this run.
			if exc == nil || exc.Value.IsZero() {
				continue
			}
		} else {
			enumTypes := make([]string, len(observations))
			avail := make([]string, len(observations))
			comments := make([]string, len(observations))
			var vobs []obs
			for i, o := range observations {
				enumTypes[i] = o.rec.EnumType
				avail[i] = o.rec.Availability
				comments[i] = o.rec.Comment
				if !o.rec.Value.IsZero() {
					vobs = append(vobs, obs{variant: o.variant, value: o.rec.Value})
				}
			}

			enumType, err := invariantString(entityRef(sectionEnum, name), "enum_type", enumTypes)
			if err != nil {
				r.fail(sectionEnum, name, err)
				continue
			}
			merged.EnumType = enumType
			merged.Availability = descriptive("availability", avail)
			merged.Comment = descriptive("comment", comments)

			if exc == nil || exc.Value.IsZero() {
				value, err := r.resolveValue(entityRef(sectionEnum, name), "value", vobs, pol)
				if err != nil {
					r.fail(sectionEnum, name, err)
					continue
				}
				merged.Value = value
			}
		}
		if exc != nil {
			merged.Value = overrideValue(merged.Value, exc.Value)
			if exc.EnumType != "" {
				merged.EnumType = exc.EnumType
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
			if exc.Comment != "" {
				merged.Comment = exc.Comment
			}
		}

		if r.out.Enum == nil {
			r.out.Enum = make(map[string]*metadata.EnumValue)
		}
		r.out.Enum[name] = merged
	}
}

// cfStringEncoding is the scanned encoding of a CFString constant; the
// bridge represents those as plain objects.
const cfStringEncoding = "^{__CFString}"

// mergeExterns merges global constants. The type encoding is the
// axis-sensitive leaf.
func (r *run) mergeExterns() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Extern {
		return d.Externs
	})
	excs := r.exc.Definitions.Externs

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Extern{}
		if len(observations) == 0 {
			if exc == nil || (exc.TypeOverride.IsZero() && exc.Type.IsZero()) {
				continue
			}
		} else {
			avail := make([]string, len(observations))
			var tobs []obs
			for i, o := range observations {
				avail[i] = o.rec.Availability
				if o.rec.Typestr.IsZero() {
					continue
				}
				v := o.rec.Typestr
				if s, ok := v.StringValue(); ok && s == cfStringEncoding {
					v = metadata.String("@")
				}
				tobs = append(tobs, obs{variant: o.variant, value: v})
			}
			merged.Availability = descriptive("availability", avail)

			if exc == nil || (exc.TypeOverride.IsZero() && exc.Type.IsZero()) {
				typestr, err := r.resolveValue(entityRef(sectionExterns, name), "typestr", tobs, nil)
				if err != nil {
					r.fail(sectionExterns, name, err)
					continue
				}
				merged.Typestr = typestr
			}
		}
		if exc != nil {
			if !exc.TypeOverride.IsZero() {
				merged.Type = exc.TypeOverride
			}
			if !exc.Type.IsZero() {
				merged.Type = exc.Type
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.Externs == nil {
			r.out.Externs = make(map[string]*metadata.Extern)
		}
		r.out.Externs[name] = merged
	}
}

// mergeLiterals merges literal constants.
func (r *run) mergeLiterals() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Literal {
		return d.Literals
	})
	excs := r.exc.Definitions.Literals

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Literal{}
		if len(observations) == 0 {
			if exc == nil || exc.Value.IsZero() {
				continue
			}
		} else {
			avail := make([]string, len(observations))
			comments := make([]string, len(observations))
			var vobs []obs
			for i, o := range observations {
				avail[i] = o.rec.Availability
				comments[i] = o.rec.Comment
				if !o.rec.Value.IsZero() {
					vobs = append(vobs, obs{variant: o.variant, value: o.rec.Value})
				}
			}
			merged.Availability = descriptive("availability", avail)
			merged.Comment = descriptive("comment", comments)

			if exc == nil || exc.Value.IsZero() {
				value, err := r.resolveValue(entityRef(sectionLiterals, name), "value", vobs, nil)
				if err != nil {
					r.fail(sectionLiterals, name, err)
					continue
				}
				merged.Value = value
			}
		}
		if exc != nil {
			merged.Value = overrideValue(merged.Value, exc.Value)
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
			if exc.Comment != "" {
				merged.Comment = exc.Comment
			}
		}

		if r.out.Literals == nil {
			r.out.Literals = make(map[string]*metadata.Literal)
		}
		r.out.Literals[name] = merged
	}
}

// mergeStructs merges struct descriptions. The encoding is classified;
// the field name list is part of the struct's identity and must match in
// every scan.
func (r *run) mergeStructs() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Struct {
		return d.Structs
	})
	excs := r.exc.Definitions.Structs

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Struct{}
		if len(observations) == 0 {
			if exc == nil || (exc.TypeOverride.IsZero() && exc.Type.IsZero()) {
				continue
			}
			merged.Fieldnames = append([]string(nil), exc.Fieldnames...)
		} else {
			avail := make([]string, len(observations))
			fieldLists := make([]string, len(observations))
			var tobs []obs
			for i, o := range observations {
				avail[i] = o.rec.Availability
				fieldLists[i] = strings.Join(o.rec.Fieldnames, ",")
				if !o.rec.Typestr.IsZero() {
					tobs = append(tobs, obs{variant: o.variant, value: o.rec.Typestr})
				}
			}

			if _, err := invariantString(entityRef(sectionStructs, name), "fieldnames", fieldLists); err != nil {
				r.fail(sectionStructs, name, err)
				continue
			}
			merged.Fieldnames = append([]string(nil), observations[0].rec.Fieldnames...)
			merged.Availability = descriptive("availability", avail)

			if exc == nil || (exc.TypeOverride.IsZero() && exc.Type.IsZero()) {
				typestr, err := r.resolveValue(entityRef(sectionStructs, name), "typestr", tobs, nil)
				if err != nil {
					r.fail(sectionStructs, name, err)
					continue
				}
				merged.Typestr = typestr
			}
		}
		if exc != nil {
			if !exc.TypeOverride.IsZero() {
				merged.Type = exc.TypeOverride
			}
			if !exc.Type.IsZero() {
				merged.Type = exc.Type
			}
			if len(exc.Fieldnames) > 0 {
				merged.Fieldnames = append([]string(nil), exc.Fieldnames...)
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.Structs == nil {
			r.out.Structs = make(map[string]*metadata.Struct)
		}
		r.out.Structs[name] = merged
	}
}

// mergeCFTypes merges opaque CoreFoundation handle types. The type-id
// function and toll-free bridge class cannot be scanned from headers and
// come from the exception set.
func (r *run) mergeCFTypes() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.CFType {
		return d.CFTypes
	})
	excs := r.exc.Definitions.CFTypes

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.CFType{}
		if len(observations) == 0 {
			if exc == nil || exc.Typestr.IsZero() {
				continue
			}
		} else {
			avail := make([]string, len(observations))
			getters := make([]string, len(observations))
			tollfree := make([]string, len(observations))
			var tobs []obs
			for i, o := range observations {
				avail[i] = o.rec.Availability
				getters[i] = o.rec.GetTypeIDFunc
				tollfree[i] = o.rec.Tollfree
				if !o.rec.Typestr.IsZero() {
					tobs = append(tobs, obs{variant: o.variant, value: o.rec.Typestr})
				}
			}
			merged.Availability = descriptive("availability", avail)

			getter, err := invariantString(entityRef(sectionCFTypes, name), "gettypeid_func", getters)
			if err != nil {
				r.fail(sectionCFTypes, name, err)
				continue
			}
			merged.GetTypeIDFunc = getter

			bridged, err := invariantString(entityRef(sectionCFTypes, name), "tollfree", tollfree)
			if err != nil {
				r.fail(sectionCFTypes, name, err)
				continue
			}
			merged.Tollfree = bridged

			if exc == nil || exc.Typestr.IsZero() {
				typestr, err := r.resolveValue(entityRef(sectionCFTypes, name), "typestr", tobs, nil)
				if err != nil {
					r.fail(sectionCFTypes, name, err)
					continue
				}
				merged.Typestr = typestr
			}
		}
		if exc != nil {
			merged.Typestr = overrideValue(merged.Typestr, exc.Typestr)
			if exc.GetTypeIDFunc != "" {
				merged.GetTypeIDFunc = exc.GetTypeIDFunc
			}
			if exc.Tollfree != "" {
				merged.Tollfree = exc.Tollfree
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.CFTypes == nil {
			r.out.CFTypes = make(map[string]*metadata.CFType)
		}
		r.out.CFTypes[name] = merged
	}
}
