package reconciler

import (
	"fmt"
	"sort"

	"github.com/bridgemeta/bridgemeta/pkg/errors"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// methodArgShift is the fixed offset between human-authored method
// argument indices and bridge indices: slots 0 and 1 hold the implicit
// receiver and selector. The shift is applied exactly once, when merged
// method records are built; exception overrides arrive in unshifted
// coordinates and are shifted here as they are copied.
const methodArgShift = 2

// overrideValue returns the exception's value when it is set, otherwise
// the merged one. Exceptions are authoritative.
func overrideValue(merged, exc metadata.Value) metadata.Value {
	if !exc.IsZero() {
		return exc
	}
	return merged
}

// applyArgOverride copies an exception's argument correction onto a
// merged argument record. A type_override replaces the computed encoding
// under the canonical "type" key, marking the slot as manually
// corrected. Count-reference pairs are shifted element-wise from the
// unshifted coordinates the exception was authored in.
func (r *run) applyArgOverride(entity, path string, target, exc *metadata.Arg, shift int) error {
	if !exc.TypeOverride.IsZero() {
		target.Type = exc.TypeOverride
	}
	if !exc.Type.IsZero() {
		target.Type = exc.Type
	}
	if exc.Name != "" {
		target.Name = exc.Name
	}
	if exc.TypeModifier != "" {
		target.TypeModifier = exc.TypeModifier
	}
	if exc.SelOfType != "" {
		target.SelOfType = exc.SelOfType
	}
	if exc.CArrayOfFixedLength != nil {
		v := *exc.CArrayOfFixedLength
		target.CArrayOfFixedLength = &v
	}
	if exc.CArrayLengthInArg != nil {
		target.CArrayLengthInArg = exc.CArrayLengthInArg.Shifted(shift)
	}
	if exc.CArrayLengthInResult {
		target.CArrayLengthInResult = true
	}
	if exc.CArrayDelimitedByNull {
		target.CArrayDelimitedByNull = true
	}
	if exc.CArrayOfVariableLength {
		target.CArrayOfVariableLength = true
	}
	if exc.PrintfFormat {
		target.PrintfFormat = true
	}
	if exc.FreeResult {
		target.FreeResult = true
	}
	if exc.AlreadyRetained {
		target.AlreadyRetained = true
	}
	if exc.AlreadyCFRetained {
		target.AlreadyCFRetained = true
	}
	if exc.NullAccepted != nil {
		v := *exc.NullAccepted
		target.NullAccepted = &v
	}
	if exc.CallableRetained != nil {
		v := *exc.CallableRetained
		target.CallableRetained = &v
	}

	if excCallable := exc.Callable(); excCallable != nil {
		return r.applyCallableOverride(entity, path, target, excCallable)
	}
	return nil
}

// applyCallableOverride applies a nested callable-signature override.
// Callable argument indices are not shifted: a callable has no receiver
// or selector slot. Matching the merge pipeline, overrides do not recurse
// past one callable level.
func (r *run) applyCallableOverride(entity, path string, target *metadata.Arg, exc *metadata.Callable) error {
	callable := target.Callable()
	if callable == nil {
		return errors.NewValidationError(entity, path,
			"callable override for a non-callable argument")
	}

	if exc.Retval != nil {
		if callable.Retval == nil {
			callable.Retval = &metadata.Arg{}
		}
		if err := r.applyArgOverride(entity, path+".callable.retval", callable.Retval, exc.Retval, 0); err != nil {
			return err
		}
	}

	for _, idx := range sortedIndices(exc.Arguments) {
		if idx < 0 || idx >= len(callable.Args) {
			return errors.NewOverrideIndexError(entity+"."+path, idx, len(callable.Args))
		}
		argPath := fmt.Sprintf("%s.callable.args.%d", path, idx)
		if err := r.applyArgOverride(entity, argPath, callable.Args[idx], exc.Arguments[idx], 0); err != nil {
			return err
		}
	}
	return nil
}

// overlayFunction applies a function exception to a merged record.
// Function argument indices are never shifted.
func (r *run) overlayFunction(name string, merged *metadata.Function, exc *metadata.Function) error {
	if exc.Variadic {
		merged.Variadic = true
	}
	if exc.CArrayDelimitedByNull {
		merged.CArrayDelimitedByNull = true
	}
	if exc.CArrayLengthInArg != nil {
		merged.CArrayLengthInArg = exc.CArrayLengthInArg.Clone()
	}
	if exc.Availability != "" {
		merged.Availability = exc.Availability
	}
	if exc.Comment != "" {
		merged.Comment = exc.Comment
	}
	if exc.Suggestion != "" {
		merged.Suggestion = exc.Suggestion
	}

	if exc.Retval != nil {
		if merged.Retval == nil {
			merged.Retval = &metadata.Arg{}
		}
		if err := r.applyArgOverride(name, "retval", merged.Retval, exc.Retval, 0); err != nil {
			return err
		}
	}

	for _, idx := range sortedIndices(exc.Arguments) {
		if idx < 0 || idx >= len(merged.Args) {
			return errors.NewOverrideIndexError(name, idx, len(merged.Args))
		}
		argPath := fmt.Sprintf("args.%d", idx)
		if err := r.applyArgOverride(name, argPath, merged.Args[idx], exc.Arguments[idx], 0); err != nil {
			return err
		}
	}
	return nil
}

// overlayMethod applies a method exception to a merged record. Override
// indices are authored unshifted; the merged record is keyed by bridge
// index, so every index and count-reference shifts by methodArgShift on
// the way in. Referencing an argument the scanner never saw is an
// override index error, never a fabricated argument.
func (r *run) overlayMethod(entity string, merged *metadata.Method, exc *metadata.Method) error {
	if exc.Variadic {
		merged.Variadic = true
	}
	if exc.CArrayDelimitedByNull {
		merged.CArrayDelimitedByNull = true
	}
	if exc.CArrayLengthInArg != nil {
		merged.CArrayLengthInArg = exc.CArrayLengthInArg.Shifted(methodArgShift)
	}
	if exc.Availability != "" {
		merged.Availability = exc.Availability
	}
	if exc.Comment != "" {
		merged.Comment = exc.Comment
	}
	if exc.Suggestion != "" {
		merged.Suggestion = exc.Suggestion
	}

	if exc.Retval != nil {
		if merged.Retval == nil {
			merged.Retval = &metadata.Arg{}
		}
		if err := r.applyArgOverride(entity, "retval", merged.Retval, exc.Retval, methodArgShift); err != nil {
			return err
		}
	}

	scanned := len(merged.Arguments)
	for _, idx := range sortedIndices(exc.Arguments) {
		shifted := idx + methodArgShift
		target, ok := merged.Arguments[shifted]
		if !ok {
			return errors.NewOverrideIndexError(entity, idx, scanned)
		}
		argPath := fmt.Sprintf("arguments.%d", shifted)
		if err := r.applyArgOverride(entity, argPath, target, exc.Arguments[idx], methodArgShift); err != nil {
			return err
		}
	}
	return nil
}

// sortedIndices returns the override map's keys in ascending order so
// overlay work and error reporting are deterministic.
func sortedIndices(m metadata.ArgMap) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
