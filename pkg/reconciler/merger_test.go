package reconciler

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

func TestDescriptiveMostRecentWins(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"last non-empty wins", []string{"10.4", "10.5"}, "10.5"},
		{"empty does not erase", []string{"10.5", ""}, "10.5"},
		{"all empty", []string{"", ""}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := descriptive("availability", tt.values); got != tt.want {
				t.Errorf("descriptive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptiveRejectsUnlistedField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("descriptive() accepted a field outside the allowlist")
		}
	}()
	descriptive("selector", []string{"a", "b"})
}

func TestCFTypeIdentityFieldsInvariant(t *testing.T) {
	a := newScan(axis.I386)
	a.Definitions.CFTypes = map[string]*metadata.CFType{
		"CGColorRef": {Typestr: metadata.String("^{CGColor}"), GetTypeIDFunc: "CGColorGetTypeID"},
	}
	b := newScan(axis.X86_64)
	b.Definitions.CFTypes = map[string]*metadata.CFType{
		"CGColorRef": {Typestr: metadata.String("^{CGColor}"), GetTypeIDFunc: "CGColorTypeID"},
	}

	result := reconcile(t, []*metadata.Scan{a, b}, nil)
	if len(result.Mismatches) != 1 {
		t.Fatalf("Mismatches = %v, want one for gettypeid_func", result.Mismatches)
	}
	if result.Framework.Definitions.CFTypes["CGColorRef"] != nil {
		t.Error("diverging CF type should not be emitted")
	}
}

func TestEntityFailureLogsDebugEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

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

	result, err := New(WithLogger(&logger)).Reconcile("Example", []*metadata.Scan{a, b, c}, nil)
	if err == nil || result == nil {
		t.Fatal("three-way conflict should fail the run")
	}

	out := buf.String()
	if !strings.Contains(out, "Entity failed to merge") {
		t.Errorf("debug log missing failure event: %s", out)
	}
	if !strings.Contains(out, `"entity":"NSBroken"`) {
		t.Errorf("debug log missing entity name: %s", out)
	}
}
