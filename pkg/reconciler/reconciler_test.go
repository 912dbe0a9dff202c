package reconciler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/logging"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

func newScan(arch axis.Arch) *metadata.Scan {
	return &metadata.Scan{Variant: metadata.Variant{Arch: arch, SDK: "10.5"}}
}

func newTestReconciler() *Reconciler {
	return New(WithLogger(&logging.Nop))
}

func reconcile(t *testing.T, scans []*metadata.Scan, exc *metadata.ExceptionSet) *Result {
	t.Helper()
	result, _ := newTestReconciler().Reconcile("Example", scans, exc)
	if result == nil {
		t.Fatal("Reconcile() returned nil result")
	}
	return result
}

func TestReconcileUnanimousCollapse(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSOne": {Value: metadata.Int(1), Comment: "first"},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSOne": {Value: metadata.Int(1)},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}

	got := result.Framework.Definitions.Enum["NSOne"]
	if got == nil {
		t.Fatal("NSOne missing from merged output")
	}
	if !got.Value.Equal(metadata.Int(1)) {
		t.Errorf("value = %s, want 1", got.Value.Render())
	}
	if got.Comment != "first" {
		t.Errorf("comment = %q, want the scanned comment to survive", got.Comment)
	}
}

func TestReconcileBitwidthDeferral(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Functions = map[string]*metadata.Function{
		"NSCount": {Retval: &metadata.Arg{Typestr: metadata.String("l")}},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Functions = map[string]*metadata.Function{
		"NSCount": {Retval: &metadata.Arg{Typestr: metadata.String("q")}},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}

	fn := result.Framework.Definitions.Functions["NSCount"]
	if fn == nil {
		t.Fatal("NSCount missing from merged output")
	}
	want := metadata.Deferred(axis.BitWidth, "l", "q")
	if !fn.Retval.Typestr.Equal(want) {
		t.Errorf("retval typestr = %s, want %s", fn.Retval.Typestr.Render(), want.Render())
	}
}

func TestReconcileByteorderDeferral(t *testing.T) {
	a := newScan(axis.PPC)
	a.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSMask": {Value: metadata.Int(1)},
	}
	b := newScan(axis.I386)
	b.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSMask": {Value: metadata.Int(16777216)},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}

	got := result.Framework.Definitions.Enum["NSMask"].Value
	want := metadata.Deferred(axis.ByteOrderAxis, int64(16777216), int64(1))
	if !got.Equal(want) {
		t.Errorf("value = %s, want %s", got.Render(), want.Render())
	}
}

func TestReconcileConflictCollected(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(1)},
		"NSFine":   {Value: metadata.Int(7)},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(2)},
		"NSFine":   {Value: metadata.Int(7)},
	}
	c := newScan(axis.ARM64)
	c.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(3)},
		"NSFine":   {Value: metadata.Int(7)},
	}

	result := reconcile(t, []*metadata.Scan{a, b, c}, nil)
	if result.OK() {
		t.Fatal("expected a conflict diagnostic")
	}
	if len(result.Conflicts) != 1 {
		t.Fatalf("Conflicts = %d, want 1", len(result.Conflicts))
	}
	if result.Conflicts[0].Entity != "enum.NSBroken" {
		t.Errorf("conflict entity = %q", result.Conflicts[0].Entity)
	}

	// The conflicting entity is dropped; the clean one still merges.
	if result.Framework.Definitions.Enum["NSBroken"] != nil {
		t.Error("conflicting entity should not reach the merged output")
	}
	if result.Framework.Definitions.Enum["NSFine"] == nil {
		t.Error("clean entity missing from merged output")
	}
}

func TestReconcileCountSuffixMax(t *testing.T) {
	mk := func(arch axis.Arch, count int64) *metadata.Scan {
		s := newScan(arch)
		s.Definitions.Enum = map[string]*metadata.EnumValue{
			"NSThingCount": {Value: metadata.Int(count)},
		}
		return s
	}

	result := reconcile(t, []*metadata.Scan{
		mk(axis.I386, 10), mk(axis.X86_64, 12), mk(axis.ARM64, 9),
	}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}

	got := result.Framework.Definitions.Enum["NSThingCount"].Value
	if !got.Equal(metadata.Int(12)) {
		t.Errorf("value = %s, want 12", got.Render())
	}
}

func TestReconcileIgnoredEntityDropped(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Externs = map[string]*metadata.Extern{
		"NSKeep": {Typestr: metadata.String("@")},
		"NSDrop": {Typestr: metadata.String("@")},
	}

	exc := metadata.Empty()
	exc.Definitions.Externs = map[string]*metadata.Extern{
		"NSDrop": {Ignore: true, Typestr: metadata.String("i")},
	}

	result := reconcile(t, []*metadata.Scan{a}, exc)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	if result.Framework.Definitions.Externs["NSDrop"] != nil {
		t.Error("ignored entity reached the merged output")
	}
	if result.Framework.Definitions.Externs["NSKeep"] == nil {
		t.Error("NSKeep missing from merged output")
	}
}

func TestReconcileExceptionOverridesConflict(t *testing.T) {
	// A value override silences what would otherwise be a conflict.
	a := newScan(axis.I386)
	a.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(1)},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(2)},
	}
	c := newScan(axis.ARM64)
	c.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(3)},
	}

	exc := metadata.Empty()
	exc.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(42)},
	}

	result := reconcile(t, []*metadata.Scan{a, b, c}, exc)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	got := result.Framework.Definitions.Enum["NSBroken"].Value
	if !got.Equal(metadata.Int(42)) {
		t.Errorf("value = %s, want 42", got.Render())
	}
}

func TestReconcileCFStringExternNormalized(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Externs = map[string]*metadata.Extern{
		"NSSomeName": {Typestr: metadata.String("^{__CFString}")},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Externs = map[string]*metadata.Extern{
		"NSSomeName": {Typestr: metadata.String("@")},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if !result.OK() {
		t.Fatalf("unexpected diagnostics: %v", result.Err())
	}
	got := result.Framework.Definitions.Externs["NSSomeName"].Typestr
	if !got.Equal(metadata.String("@")) {
		t.Errorf("typestr = %s, want \"@\"", got.Render())
	}
}

func TestReconcileStructFieldnameMismatch(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Structs = map[string]*metadata.Struct{
		"NSPoint": {Typestr: metadata.String("{_NSPoint=ff}"), Fieldnames: []string{"x", "y"}},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Structs = map[string]*metadata.Struct{
		"NSPoint": {Typestr: metadata.String("{_NSPoint=dd}"), Fieldnames: []string{"x", "z"}},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if result.OK() {
		t.Fatal("expected a scan mismatch diagnostic")
	}
	if len(result.Mismatches) != 1 {
		t.Fatalf("Mismatches = %d, want 1", len(result.Mismatches))
	}
}

func TestReconcileDeterministicOutput(t *testing.T) {
	build := func() []*metadata.Scan {
		a := newScan(axis.I386)
		a.Definitions.Enum = map[string]*metadata.EnumValue{
			"NSAlpha": {Value: metadata.Int(1)},
			"NSBeta":  {Value: metadata.Int(2)},
		}
		a.Definitions.Functions = map[string]*metadata.Function{
			"NSCount": {Retval: &metadata.Arg{Typestr: metadata.String("l")}},
		}
		b := newScan(axis.X86_64)
		b.Definitions.Enum = map[string]*metadata.EnumValue{
			"NSAlpha": {Value: metadata.Int(1)},
			"NSBeta":  {Value: metadata.Int(2)},
		}
		b.Definitions.Functions = map[string]*metadata.Function{
			"NSCount": {Retval: &metadata.Arg{Typestr: metadata.String("q")}},
		}
		return []*metadata.Scan{a, b}
	}

	first := reconcile(t, build(), nil)
	second := reconcile(t, build(), nil)

	firstData, err := metadata.MarshalFramework(first.Framework)
	if err != nil {
		t.Fatal(err)
	}
	secondData, err := metadata.MarshalFramework(second.Framework)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(firstData, secondData) {
		t.Error("two runs over identical inputs produced different bytes")
	}
}

func TestReconcileOrderIndependence(t *testing.T) {
	// With no descriptive-field divergence, scan order must not matter.
	mk := func(arch axis.Arch, typestr string) *metadata.Scan {
		s := newScan(arch)
		s.Definitions.Functions = map[string]*metadata.Function{
			"NSCount": {Retval: &metadata.Arg{Typestr: metadata.String(typestr)}},
		}
		return s
	}

	forward := reconcile(t, []*metadata.Scan{mk(axis.I386, "l"), mk(axis.X86_64, "q")}, nil)
	reversed := reconcile(t, []*metadata.Scan{mk(axis.X86_64, "q"), mk(axis.I386, "l")}, nil)

	forwardData, err := metadata.MarshalFramework(forward.Framework)
	if err != nil {
		t.Fatal(err)
	}
	reversedData, err := metadata.MarshalFramework(reversed.Framework)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(forwardData), string(reversedData)); diff != "" {
		t.Errorf("scan order changed output (-forward +reversed):\n%s", diff)
	}
}

func TestReconcileDescriptiveFieldMostRecentWins(t *testing.T) {
	mk := func(arch axis.Arch, comment string) *metadata.Scan {
		s := newScan(arch)
		s.Definitions.Enum = map[string]*metadata.EnumValue{
			"NSOne": {Value: metadata.Int(1), Comment: comment},
		}
		return s
	}

	result := reconcile(t, []*metadata.Scan{mk(axis.I386, "old"), mk(axis.X86_64, "new")}, nil)
	if got := result.Framework.Definitions.Enum["NSOne"].Comment; got != "new" {
		t.Errorf("comment = %q, want most recent value", got)
	}

	// An empty later value does not erase an earlier one.
	result = reconcile(t, []*metadata.Scan{mk(axis.I386, "old"), mk(axis.X86_64, "")}, nil)
	if got := result.Framework.Definitions.Enum["NSOne"].Comment; got != "old" {
		t.Errorf("comment = %q, want earlier value kept", got)
	}
}

func TestReconcileRejectsUnknownArch(t *testing.T) {
	bad := &metadata.Scan{Variant: metadata.Variant{Arch: "mips"}}
	result, err := newTestReconciler().Reconcile("Example", []*metadata.Scan{bad}, nil)
	if err == nil {
		t.Fatal("Reconcile() accepted an unknown architecture")
	}
	if result != nil {
		t.Error("unusable input should not produce a result")
	}
}

func TestResultReport(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(1)},
	}
	b := newScan(axis.X86_64)
	b.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(2)},
	}
	c := newScan(axis.ARM64)
	c.Definitions.Enum = map[string]*metadata.EnumValue{
		"NSBroken": {Value: metadata.Int(3)},
	}

	result := reconcile(t, []*metadata.Scan{a, b, c}, nil)

	var buf bytes.Buffer
	result.Report(&buf)
	out := buf.String()
	if !strings.Contains(out, "conflict: ") || !strings.Contains(out, "enum.NSBroken") {
		t.Errorf("report missing conflict line:\n%s", out)
	}
	if !strings.Contains(out, "1 problems") {
		t.Errorf("report missing summary line:\n%s", out)
	}
}
