package reconciler

import (
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// The sections in this file hold descriptive, largely
// architecture-insensitive records: aliases, enum type declarations,
// constant expressions and function-like macros. Aside from the
// classified enum-type encoding, they merge by taking the most recent
// scan's view, with expression and macro texts asserted identical across
// variants.

// mergeAliases merges the aliases section. Aliases mostly name renamed
// constants, so the newest SDK's target wins.
func (r *run) mergeAliases() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Alias {
		return d.Aliases
	})
	excs := r.exc.Definitions.Aliases

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Alias{}
		if len(observations) == 0 {
			if exc == nil || exc.Alias == "" {
				continue
			}
		} else {
			merged.Alias = descriptive("alias", aliasTargets(observations))
			merged.Availability = descriptive("availability", aliasAvailability(observations))
		}
		if exc != nil {
			if exc.Alias != "" {
				merged.Alias = exc.Alias
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.Aliases == nil {
			r.out.Aliases = make(map[string]*metadata.Alias)
		}
		r.out.Aliases[name] = merged
	}
}

func aliasTargets(observations []entityObs[*metadata.Alias]) []string {
	out := make([]string, len(observations))
	for i, o := range observations {
		out[i] = o.rec.Alias
	}
	return out
}

func aliasAvailability(observations []entityObs[*metadata.Alias]) []string {
	out := make([]string, len(observations))
	for i, o := range observations {
		out[i] = o.rec.Availability
	}
	return out
}

// mergeEnumTypes merges enum type declarations. The declaration kind is
// invariant; the underlying encoding may legally differ by architecture
// and is classified.
func (r *run) mergeEnumTypes() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.EnumType {
		return d.EnumTypes
	})
	excs := r.exc.Definitions.EnumTypes

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.EnumType{}
		if len(observations) == 0 {
			if exc == nil || exc.Typestr.IsZero() {
				continue
			}
		} else {
			kinds := make([]string, len(observations))
			avail := make([]string, len(observations))
			var tobs []obs
			for i, o := range observations {
				kinds[i] = o.rec.Kind
				avail[i] = o.rec.Availability
				if !o.rec.Typestr.IsZero() {
					tobs = append(tobs, obs{variant: o.variant, value: o.rec.Typestr})
				}
			}

			kind, err := invariantString(entityRef(sectionEnumTypes, name), "kind", kinds)
			if err != nil {
				r.fail(sectionEnumTypes, name, err)
				continue
			}
			merged.Kind = kind
			merged.Availability = descriptive("availability", avail)

			if exc == nil || exc.Typestr.IsZero() {
				typestr, err := r.resolveValue(entityRef(sectionEnumTypes, name), "typestr", tobs, nil)
				if err != nil {
					r.fail(sectionEnumTypes, name, err)
					continue
				}
				merged.Typestr = typestr
			}
		}
		if exc != nil {
			merged.Typestr = overrideValue(merged.Typestr, exc.Typestr)
			if exc.Kind != "" {
				merged.Kind = exc.Kind
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.EnumTypes == nil {
			r.out.EnumTypes = make(map[string]*metadata.EnumType)
		}
		r.out.EnumTypes[name] = merged
	}
}

// mergeExpressions merges constant expressions. The expression text is
// expected to be identical in every scan; divergence is a scanner
// defect.
func (r *run) mergeExpressions() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Expression {
		return d.Expressions
	})
	excs := r.exc.Definitions.Expressions

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.Expression{}
		if len(observations) == 0 {
			if exc == nil || exc.Expression == "" {
				continue
			}
		} else {
			texts := make([]string, len(observations))
			avail := make([]string, len(observations))
			for i, o := range observations {
				texts[i] = o.rec.Expression
				avail[i] = o.rec.Availability
			}

			// An exception-supplied expression silences the invariant
			// check: the hand-authored text wins regardless of what the
			// scans disagreed about.
			if exc == nil || exc.Expression == "" {
				text, err := invariantString(entityRef(sectionExpressions, name), "expression", texts)
				if err != nil {
					r.fail(sectionExpressions, name, err)
					continue
				}
				merged.Expression = text
			}
			merged.Availability = descriptive("availability", avail)
		}
		if exc != nil {
			if exc.Expression != "" {
				merged.Expression = exc.Expression
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.Expressions == nil {
			r.out.Expressions = make(map[string]*metadata.Expression)
		}
		r.out.Expressions[name] = merged
	}
}

// mergeFuncMacros merges function-like macros, asserting the definition
// text identical across scans.
func (r *run) mergeFuncMacros() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.FuncMacro {
		return d.FuncMacros
	})
	excs := r.exc.Definitions.FuncMacros

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		merged := &metadata.FuncMacro{}
		if len(observations) == 0 {
			if exc == nil || exc.Definition == "" {
				continue
			}
		} else {
			defs := make([]string, len(observations))
			avail := make([]string, len(observations))
			for i, o := range observations {
				defs[i] = o.rec.Definition
				avail[i] = o.rec.Availability
			}

			if exc == nil || exc.Definition == "" {
				def, err := invariantString(entityRef(sectionFuncMacros, name), "definition", defs)
				if err != nil {
					r.fail(sectionFuncMacros, name, err)
					continue
				}
				merged.Definition = def
			}
			merged.Availability = descriptive("availability", avail)
		}
		if exc != nil {
			if exc.Definition != "" {
				merged.Definition = exc.Definition
			}
			if exc.Availability != "" {
				merged.Availability = exc.Availability
			}
		}

		if r.out.FuncMacros == nil {
			r.out.FuncMacros = make(map[string]*metadata.FuncMacro)
		}
		r.out.FuncMacros[name] = merged
	}
}
