package reconciler

import (
	"fmt"
	"strings"

	"github.com/bridgemeta/bridgemeta/pkg/errors"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// Section names, matching the on-disk section keys.
const (
	sectionAliases           = "aliases"
	sectionEnumTypes         = "enum_type"
	sectionEnum              = "enum"
	sectionExterns           = "externs"
	sectionCFTypes           = "cftypes"
	sectionLiterals          = "literals"
	sectionStructs           = "structs"
	sectionExpressions       = "expressions"
	sectionFuncMacros        = "func_macros"
	sectionFunctions         = "functions"
	sectionClasses           = "classes"
	sectionFormalProtocols   = "formal_protocols"
	sectionInformalProtocols = "informal_protocols"
)

// maxCallableDepth caps recursion into nested callable signatures. A
// function-pointer or block argument merges through the same pipeline as
// its owner, but its own arguments may not carry callables.
const maxCallableDepth = 1

// mostRecentWins is the explicit allowlist of descriptive fields that
// take the last-processed variant's value verbatim. These are the only
// fields for which variant input order affects merged output; everything
// else merges order-independently.
var mostRecentWins = map[string]bool{
	"availability": true,
	"comment":      true,
	"suggestion":   true,
	"alias":        true,
}

// descriptive implements the most-recent-variant-wins rule: the last
// non-empty value in variant input order. The field must be named in
// mostRecentWins; any other field reaching this path is a programming
// error.
func descriptive(field string, values []string) string {
	if !mostRecentWins[field] {
		panic("field " + field + " is not in the most-recent-wins allowlist")
	}
	out := ""
	for _, v := range values {
		if v != "" {
			out = v
		}
	}
	return out
}

// invariantString asserts that a scalar identity field carries one value
// across every variant that scanned it. Divergence is a scanner defect,
// fatal for the entity.
func invariantString(entity, field string, values []string) (string, error) {
	out := ""
	for _, v := range values {
		if v == "" {
			continue
		}
		if out == "" {
			out = v
			continue
		}
		if v != out {
			return "", errors.NewScanMismatchError(entity, field, out, v)
		}
	}
	return out, nil
}

// argObs is one variant's view of a single argument or return value.
type argObs struct {
	variant metadata.Variant
	arg     *metadata.Arg
}

// argList is one variant's view of a positional argument list.
type argList struct {
	variant metadata.Variant
	args    []*metadata.Arg
}

// mergeArg combines the per-variant records for one argument slot into a
// fresh record. The argument name is invariant, the type encoding is
// classified, annotation flags follow the most recent variant, and a
// nested callable signature recurses one level through the same
// pipeline.
func (r *run) mergeArg(entity, path string, observations []argObs, depth int) (*metadata.Arg, error) {
	out := &metadata.Arg{}

	for _, o := range observations {
		if o.arg.Name == "" {
			continue
		}
		if out.Name == "" {
			out.Name = o.arg.Name
		} else if out.Name != o.arg.Name {
			return nil, errors.NewScanMismatchError(entity, path+".name", out.Name, o.arg.Name)
		}
	}

	var tobs []obs
	for _, o := range observations {
		if !o.arg.Typestr.IsZero() {
			tobs = append(tobs, obs{variant: o.variant, value: o.arg.Typestr})
		}
		if o.arg.TypestrSpecial {
			out.TypestrSpecial = true
		}
	}
	typestr, err := r.resolveValue(entity, path+".typestr", tobs, nil)
	if err != nil {
		return nil, err
	}
	out.Typestr = typestr

	for _, o := range observations {
		applyArgAnnotations(out, o.arg)
	}

	// A pointer-to-pointer argument annotated as a C array cannot be
	// described without guessing the element layout; refuse it so the
	// entity shows up in the report and gets a hand-authored exception.
	if s, ok := typestr.StringValue(); ok && strings.HasPrefix(s, "^^") {
		if out.CArrayLengthInArg != nil || out.CArrayOfVariableLength || out.CArrayOfFixedLength != nil {
			return nil, errors.NewValidationError(entity, path,
				"doubly-indirect C array argument needs a manual exception")
		}
	}

	merged, err := r.mergeArgCallables(entity, path, observations, depth)
	if err != nil {
		return nil, err
	}
	if merged != nil {
		if merged.isBlock {
			out.Block = merged.callable
		} else {
			out.FunctionPointer = merged.callable
		}
	}

	return out, nil
}

// applyArgAnnotations copies one variant's annotation flags onto the
// merged record. Later variants overwrite earlier ones; absent flags
// leave the merged value alone, so a flag present in any variant
// survives.
func applyArgAnnotations(out, in *metadata.Arg) {
	if in.TypeModifier != "" {
		out.TypeModifier = in.TypeModifier
	}
	if in.SelOfType != "" {
		out.SelOfType = in.SelOfType
	}
	if in.CArrayOfFixedLength != nil {
		v := *in.CArrayOfFixedLength
		out.CArrayOfFixedLength = &v
	}
	if in.CArrayLengthInArg != nil {
		out.CArrayLengthInArg = in.CArrayLengthInArg.Clone()
	}
	if in.CArrayLengthInResult {
		out.CArrayLengthInResult = true
	}
	if in.CArrayDelimitedByNull {
		out.CArrayDelimitedByNull = true
	}
	if in.CArrayOfVariableLength {
		out.CArrayOfVariableLength = true
	}
	if in.PrintfFormat {
		out.PrintfFormat = true
	}
	if in.FreeResult {
		out.FreeResult = true
	}
	if in.AlreadyRetained {
		out.AlreadyRetained = true
	}
	if in.AlreadyCFRetained {
		out.AlreadyCFRetained = true
	}
	if in.NullAccepted != nil {
		v := *in.NullAccepted
		out.NullAccepted = &v
	}
	if in.CallableRetained != nil {
		v := *in.CallableRetained
		out.CallableRetained = &v
	}
}

// mergedCallable pairs a merged callable signature with which flavor of
// callable the scans declared.
type mergedCallable struct {
	callable *metadata.Callable
	isBlock  bool
}

// mergeArgCallables merges the nested callable signatures of an argument
// slot, if any variant carries one.
func (r *run) mergeArgCallables(entity, path string, observations []argObs, depth int) (*mergedCallable, error) {
	type callObs struct {
		variant  metadata.Variant
		callable *metadata.Callable
		isBlock  bool
	}

	var calls []callObs
	for _, o := range observations {
		switch {
		case o.arg.FunctionPointer != nil:
			calls = append(calls, callObs{o.variant, o.arg.FunctionPointer, false})
		case o.arg.Block != nil:
			calls = append(calls, callObs{o.variant, o.arg.Block, true})
		}
	}
	if len(calls) == 0 {
		return nil, nil
	}

	if depth >= maxCallableDepth {
		return nil, errors.NewValidationError(entity, path,
			"callable signatures nest at most one level")
	}

	isBlock := calls[0].isBlock
	for _, c := range calls[1:] {
		if c.isBlock != isBlock {
			return nil, errors.NewScanMismatchError(entity, path+".callable",
				callableKind(isBlock), callableKind(c.isBlock))
		}
	}

	out := &metadata.Callable{}

	var retObs []argObs
	for _, c := range calls {
		if c.callable.Retval != nil {
			retObs = append(retObs, argObs{variant: c.variant, arg: c.callable.Retval})
		}
	}
	if len(retObs) > 0 {
		retval, err := r.mergeArg(entity, path+".callable.retval", retObs, depth+1)
		if err != nil {
			return nil, err
		}
		out.Retval = retval
	} else {
		// A callable without a scanned return value returns void.
		out.Retval = &metadata.Arg{Typestr: metadata.String("v")}
	}

	argCount := len(calls[0].callable.Args)
	for _, c := range calls[1:] {
		if len(c.callable.Args) != argCount {
			return nil, errors.NewScanMismatchError(entity, path+".callable.args",
				fmt.Sprintf("%d arguments", argCount),
				fmt.Sprintf("%d arguments", len(c.callable.Args)))
		}
	}
	for i := 0; i < argCount; i++ {
		var slot []argObs
		for _, c := range calls {
			slot = append(slot, argObs{variant: c.variant, arg: c.callable.Args[i]})
		}
		merged, err := r.mergeArg(entity, fmt.Sprintf("%s.callable.args.%d", path, i), slot, depth+1)
		if err != nil {
			return nil, err
		}
		out.Args = append(out.Args, merged)
	}

	return &mergedCallable{callable: out, isBlock: isBlock}, nil
}

func callableKind(isBlock bool) string {
	if isBlock {
		return "block"
	}
	return "function_pointer"
}

// mergeArgList merges positional argument lists index by index. An index
// present in only a subset of variants means the scanner disagreed about
// the signature, which is a defect rather than an axis difference.
func (r *run) mergeArgList(entity, path string, lists []argList) ([]*metadata.Arg, error) {
	if len(lists) == 0 {
		return nil, nil
	}

	count := len(lists[0].args)
	for _, l := range lists[1:] {
		if len(l.args) != count {
			return nil, errors.NewScanMismatchError(entity, path,
				fmt.Sprintf("%d arguments", count),
				fmt.Sprintf("%d arguments", len(l.args)))
		}
	}

	out := make([]*metadata.Arg, 0, count)
	for i := 0; i < count; i++ {
		var slot []argObs
		for _, l := range lists {
			slot = append(slot, argObs{variant: l.variant, arg: l.args[i]})
		}
		merged, err := r.mergeArg(entity, fmt.Sprintf("%s.%d", path, i), slot, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, merged)
	}
	return out, nil
}
