package reconciler

import (
	"testing"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

func functionScan(arch axis.Arch, fn *metadata.Function) *metadata.Scan {
	s := newScan(arch)
	s.Definitions.Functions = map[string]*metadata.Function{"NSDoThing": fn}
	return s
}

func TestMergeFunctionArgCountMismatch(t *testing.T) {
	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.I386, &metadata.Function{
			Args: []*metadata.Arg{{Typestr: metadata.String("i")}},
		}),
		functionScan(axis.X86_64, &metadata.Function{
			Args: []*metadata.Arg{
				{Typestr: metadata.String("i")},
				{Typestr: metadata.String("i")},
			},
		}),
	}, nil)

	if result.OK() {
		t.Fatal("expected a scan mismatch for diverging argument counts")
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("Mismatches = %d, want 1", len(result.Mismatches))
	}
	if result.Framework.Definitions.Functions["NSDoThing"] != nil {
		t.Error("mismatched function should not reach the output")
	}
}

func TestMergeFunctionVariadicSticky(t *testing.T) {
	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.I386, &metadata.Function{Variadic: true}),
		functionScan(axis.X86_64, &metadata.Function{}),
	}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	if !result.Framework.Definitions.Functions["NSDoThing"].Variadic {
		t.Error("variadic flag observed on any variant should survive")
	}
}

func TestMergeFunctionMissingRetvalDefaultsVoid(t *testing.T) {
	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.X86_64, &metadata.Function{}),
	}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	retval := result.Framework.Definitions.Functions["NSDoThing"].Retval
	if retval == nil || !retval.Typestr.Equal(metadata.String("v")) {
		t.Errorf("retval = %+v, want void default", retval)
	}
}

func TestMergeFunctionBlockArgument(t *testing.T) {
	block := func(argType string) *metadata.Function {
		return &metadata.Function{
			Retval: &metadata.Arg{Typestr: metadata.String("v")},
			Args: []*metadata.Arg{{
				Typestr: metadata.String("@?"),
				Block: &metadata.Callable{
					Retval: &metadata.Arg{Typestr: metadata.String("v")},
					Args: []*metadata.Arg{
						{Typestr: metadata.String("^v")},
						{Typestr: metadata.String(argType)},
					},
				},
			}},
		}
	}

	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.I386, block("l")),
		functionScan(axis.X86_64, block("q")),
	}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}

	arg := result.Framework.Definitions.Functions["NSDoThing"].Args[0]
	if arg.Block == nil {
		t.Fatal("block signature missing from merged argument")
	}
	want := metadata.Deferred(axis.BitWidth, "l", "q")
	if !arg.Block.Args[1].Typestr.Equal(want) {
		t.Errorf("block argument typestr = %s, want %s", arg.Block.Args[1].Typestr.Render(), want.Render())
	}
}

func TestMergeFunctionCallableMissingRetval(t *testing.T) {
	fn := &metadata.Function{
		Args: []*metadata.Arg{{
			Typestr: metadata.String("^?"),
			FunctionPointer: &metadata.Callable{
				Args: []*metadata.Arg{{Typestr: metadata.String("i")}},
			},
		}},
	}

	result := reconcile(t, []*metadata.Scan{functionScan(axis.X86_64, fn)}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	callable := result.Framework.Definitions.Functions["NSDoThing"].Args[0].FunctionPointer
	if callable == nil || callable.Retval == nil {
		t.Fatal("callable retval missing")
	}
	if !callable.Retval.Typestr.Equal(metadata.String("v")) {
		t.Errorf("callable retval = %s, want void default", callable.Retval.Typestr.Render())
	}
}

func TestMergeFunctionCallableKindMismatch(t *testing.T) {
	signature := &metadata.Callable{
		Retval: &metadata.Arg{Typestr: metadata.String("v")},
	}
	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.I386, &metadata.Function{
			Args: []*metadata.Arg{{Typestr: metadata.String("@?"), Block: signature.Clone()}},
		}),
		functionScan(axis.X86_64, &metadata.Function{
			Args: []*metadata.Arg{{Typestr: metadata.String("@?"), FunctionPointer: signature.Clone()}},
		}),
	}, nil)

	if result.OK() {
		t.Fatal("expected a scan mismatch for block vs function pointer")
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("Mismatches = %d, want 1", len(result.Mismatches))
	}
}

func TestMergeFunctionNestedCallableRejected(t *testing.T) {
	fn := &metadata.Function{
		Args: []*metadata.Arg{{
			Typestr: metadata.String("@?"),
			Block: &metadata.Callable{
				Retval: &metadata.Arg{Typestr: metadata.String("v")},
				Args: []*metadata.Arg{{
					Typestr: metadata.String("@?"),
					Block: &metadata.Callable{
						Retval: &metadata.Arg{Typestr: metadata.String("v")},
					},
				}},
			},
		}},
	}

	result := reconcile(t, []*metadata.Scan{functionScan(axis.X86_64, fn)}, nil)
	if result.OK() {
		t.Fatal("expected a rejection for a callable nested past one level")
	}
	if len(result.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(result.Rejections))
	}
}

func TestMergeFunctionDoublyIndirectArrayRejected(t *testing.T) {
	fn := &metadata.Function{
		Args: []*metadata.Arg{{
			Typestr:           metadata.String("^^{CGColor}"),
			CArrayLengthInArg: &metadata.LengthRef{In: 1},
		}, {
			Typestr: metadata.String("Q"),
		}},
	}

	result := reconcile(t, []*metadata.Scan{functionScan(axis.X86_64, fn)}, nil)
	if result.OK() {
		t.Fatal("expected a rejection for a doubly-indirect C array argument")
	}
	if len(result.Rejections) != 1 {
		t.Fatalf("Rejections = %d, want 1", len(result.Rejections))
	}
}

func TestMergeFunctionArgNameMismatch(t *testing.T) {
	result := reconcile(t, []*metadata.Scan{
		functionScan(axis.I386, &metadata.Function{
			Args: []*metadata.Arg{{Name: "count", Typestr: metadata.String("i")}},
		}),
		functionScan(axis.X86_64, &metadata.Function{
			Args: []*metadata.Arg{{Name: "length", Typestr: metadata.String("i")}},
		}),
	}, nil)

	if result.OK() {
		t.Fatal("expected a scan mismatch for diverging argument names")
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("Mismatches = %d, want 1", len(result.Mismatches))
	}
}
