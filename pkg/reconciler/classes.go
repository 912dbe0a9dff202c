package reconciler

import (
	"fmt"
	"sort"
	"unicode"

	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// methodKey identifies a method within a class or protocol. Instance and
// class methods share a selector namespace on disk but not at runtime.
type methodKey struct {
	selector    string
	classMethod bool
}

func (k methodKey) String() string {
	if k.classMethod {
		return "+" + k.selector
	}
	return "-" + k.selector
}

// memberObs is one variant's view of a class or protocol body.
type memberObs struct {
	variant    metadata.Variant
	methods    []*metadata.Method
	properties []*metadata.Property
}

// mergeClasses merges class bodies. The scanner folds category methods
// into their class, so a class record is just its method and property
// lists; properties are lowered to accessor methods before merging and
// the merged set contains only methods.
func (r *run) mergeClasses() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Class {
		return d.Classes
	})
	excs := r.exc.Definitions.Classes

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		var members []memberObs
		for _, o := range scanned[name] {
			members = append(members, memberObs{
				variant:    o.variant,
				methods:    o.rec.Methods,
				properties: o.rec.Properties,
			})
		}

		var excMethods []*metadata.Method
		var excProps []*metadata.Property
		if exc != nil {
			excMethods = exc.Methods
			excProps = exc.Properties
		}

		methods := r.mergeMethodSet(sectionClasses, name, members, excMethods, excProps)
		if len(scanned[name]) == 0 && len(methods) == 0 {
			continue
		}

		if r.out.Classes == nil {
			r.out.Classes = make(map[string]*metadata.Class)
		}
		r.out.Classes[name] = &metadata.Class{Methods: methods}
	}
}

// mergeMethodSet merges the methods of one class or protocol across
// variants. Properties are lowered to their accessor methods first, so a
// property scanned on one variant and a hand-written accessor on another
// land in the same slot. Failures are collected per method; one bad
// method does not take the rest of the class with it.
func (r *run) mergeMethodSet(section, owner string, members []memberObs, excMethods []*metadata.Method, excProps []*metadata.Property) []*metadata.Method {
	ignoredProps := make(map[string]bool)
	for _, p := range excProps {
		if p.Ignore {
			ignoredProps[p.Name] = true
		}
	}

	grouped := make(map[methodKey][]entityObs[*metadata.Method])
	for _, m := range members {
		for _, meth := range m.methods {
			key := methodKey{meth.Selector, meth.ClassMethod}
			grouped[key] = append(grouped[key], entityObs[*metadata.Method]{variant: m.variant, rec: meth})
		}
		for _, prop := range m.properties {
			if prop.Ignore || ignoredProps[prop.Name] {
				continue
			}
			for _, meth := range propertyAccessors(prop) {
				key := methodKey{meth.Selector, meth.ClassMethod}
				grouped[key] = append(grouped[key], entityObs[*metadata.Method]{variant: m.variant, rec: meth})
			}
		}
	}

	excByKey := make(map[methodKey]*metadata.Method, len(excMethods))
	for _, m := range excMethods {
		excByKey[methodKey{m.Selector, m.ClassMethod}] = m
	}

	keys := make([]methodKey, 0, len(grouped)+len(excByKey))
	for key := range grouped {
		keys = append(keys, key)
	}
	for key := range excByKey {
		if _, ok := grouped[key]; !ok {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].selector != keys[j].selector {
			return keys[i].selector < keys[j].selector
		}
		return !keys[i].classMethod && keys[j].classMethod
	})

	var out []*metadata.Method
	for _, key := range keys {
		exc := excByKey[key]
		if exc != nil && exc.Ignore {
			continue
		}
		ref := fmt.Sprintf("%s.%s.%s", section, owner, key)

		observations := grouped[key]
		var merged *metadata.Method
		if len(observations) == 0 {
			merged = synthesizeMethod(key)
		} else {
			var err error
			merged, err = r.mergeMethod(ref, key, observations)
			if err != nil {
				r.fail(section, ref, err)
				continue
			}
		}

		if exc != nil {
			if err := r.overlayMethod(ref, merged, exc); err != nil {
				r.fail(section, ref, err)
				continue
			}
		}
		out = append(out, merged)
	}
	return out
}

// mergeMethod combines the per-variant records for one method. The
// merged record keys its arguments by bridge index, shifting both the
// positions and any count references by the two implicit slots.
func (r *run) mergeMethod(entity string, key methodKey, observations []entityObs[*metadata.Method]) (*metadata.Method, error) {
	out := &metadata.Method{
		Selector:    key.selector,
		ClassMethod: key.classMethod,
	}

	var retObs []argObs
	var lists []argList
	avail := make([]string, len(observations))
	comments := make([]string, len(observations))
	suggestions := make([]string, len(observations))
	for i, o := range observations {
		if o.rec.Retval != nil {
			retObs = append(retObs, argObs{variant: o.variant, arg: o.rec.Retval})
		}
		lists = append(lists, argList{variant: o.variant, args: o.rec.Args})
		if o.rec.Variadic {
			out.Variadic = true
		}
		if o.rec.CArrayDelimitedByNull {
			out.CArrayDelimitedByNull = true
		}
		if o.rec.CArrayLengthInArg != nil {
			out.CArrayLengthInArg = o.rec.CArrayLengthInArg.Shifted(methodArgShift)
		}
		avail[i] = o.rec.Availability
		comments[i] = o.rec.Comment
		suggestions[i] = o.rec.Suggestion
	}

	if len(retObs) > 0 {
		retval, err := r.mergeArg(entity, "retval", retObs, 0)
		if err != nil {
			return nil, err
		}
		retval.CArrayLengthInArg = retval.CArrayLengthInArg.Shifted(methodArgShift)
		out.Retval = retval
	} else {
		out.Retval = &metadata.Arg{Typestr: metadata.String("v")}
	}

	args, err := r.mergeArgList(entity, "args", lists)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		out.Arguments = make(metadata.ArgMap, len(args))
		for i, a := range args {
			a.CArrayLengthInArg = a.CArrayLengthInArg.Shifted(methodArgShift)
			out.Arguments[i+methodArgShift] = a
		}
	}

	out.Availability = descriptive("availability", avail)
	out.Comment = descriptive("comment", comments)
	out.Suggestion = descriptive("suggestion", suggestions)
	return out, nil
}

// synthesizeMethod builds an empty merged record for a method that
// exists only in the exception set. The overlay fills it in; an
// override referencing an argument slot still fails, since the scanner
// never established the signature.
func synthesizeMethod(key methodKey) *metadata.Method {
	return &metadata.Method{
		Selector:    key.selector,
		ClassMethod: key.classMethod,
		Retval:      &metadata.Arg{Typestr: metadata.String("v")},
	}
}

// propertyAccessors lowers a property to its accessor methods: a getter
// returning the property type and, unless the property is read-only, a
// single-argument void setter.
func propertyAccessors(prop *metadata.Property) []*metadata.Method {
	getter := prop.Getter
	if getter == "" {
		getter = prop.Name
	}
	out := []*metadata.Method{{
		Selector:     getter,
		Retval:       &metadata.Arg{Typestr: prop.Typestr},
		Availability: prop.Availability,
	}}

	if !prop.ReadOnly {
		setter := prop.Setter
		if setter == "" {
			setter = "set" + upperFirst(prop.Name) + ":"
		}
		out = append(out, &metadata.Method{
			Selector:     setter,
			Retval:       &metadata.Arg{Typestr: metadata.String("v")},
			Args:         []*metadata.Arg{{Typestr: prop.Typestr}},
			Availability: prop.Availability,
		})
	}
	return out
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
