package reconciler

import (
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// mergeFunctions merges C function signatures. The return value and each
// positional argument go through the argument pipeline; the argument
// count itself is part of the signature and must match in every scan.
func (r *run) mergeFunctions() {
	scanned := collectSection(r.scans, func(d *metadata.Definitions) map[string]*metadata.Function {
		return d.Functions
	})
	excs := r.exc.Definitions.Functions

	for _, name := range unionNames(scanned, excs) {
		exc := excs[name]
		if exc != nil && exc.Ignore {
			continue
		}

		observations := scanned[name]
		var merged *metadata.Function
		if len(observations) == 0 {
			merged = synthesizeFunction(exc)
			if merged == nil {
				continue
			}
		} else {
			var err error
			merged, err = r.mergeFunction(entityRef(sectionFunctions, name), observations)
			if err != nil {
				r.fail(sectionFunctions, name, err)
				continue
			}
		}

		if exc != nil {
			if err := r.overlayFunction(entityRef(sectionFunctions, name), merged, exc); err != nil {
				r.fail(sectionFunctions, name, err)
				continue
			}
		}

		if r.out.Functions == nil {
			r.out.Functions = make(map[string]*metadata.Function)
		}
		r.out.Functions[name] = merged
	}
}

// mergeFunction combines the per-variant records for one function.
func (r *run) mergeFunction(entity string, observations []entityObs[*metadata.Function]) (*metadata.Function, error) {
	out := &metadata.Function{}

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
			out.CArrayLengthInArg = o.rec.CArrayLengthInArg.Clone()
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
		out.Retval = retval
	} else {
		out.Retval = &metadata.Arg{Typestr: metadata.String("v")}
	}

	args, err := r.mergeArgList(entity, "args", lists)
	if err != nil {
		return nil, err
	}
	out.Args = args

	out.Availability = descriptive("availability", avail)
	out.Comment = descriptive("comment", comments)
	out.Suggestion = descriptive("suggestion", suggestions)
	return out, nil
}

// synthesizeFunction builds a merged record for a function that exists
// only in the exception set, typically one hidden from the header
// scanner behind a macro. The exception must describe the signature;
// anything else is an entry with nothing to say and is dropped.
func synthesizeFunction(exc *metadata.Function) *metadata.Function {
	if exc == nil || (exc.Retval == nil && len(exc.Arguments) == 0) {
		return nil
	}
	out := &metadata.Function{
		Retval: &metadata.Arg{Typestr: metadata.String("v")},
	}
	max := -1
	for idx := range exc.Arguments {
		if idx > max {
			max = idx
		}
	}
	for i := 0; i <= max; i++ {
		out.Args = append(out.Args, &metadata.Arg{})
	}
	return out
}
