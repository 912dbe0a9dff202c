package metadata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
)

func testFramework() *Framework {
	fw := NewFramework("Example", []Variant{
		{Arch: axis.I386, SDK: "10.5"},
		{Arch: axis.X86_64, SDK: "10.5"},
	})
	fw.Definitions.Enum = map[string]*EnumValue{
		"NSExampleOne": {Value: Int(1)},
		"NSExampleTwo": {Value: Deferred(axis.BitWidth, int64(2), int64(4))},
	}
	fw.Definitions.Externs = map[string]*Extern{
		"NSExampleName": {Typestr: String("@")},
	}
	fw.Definitions.Classes = map[string]*Class{
		"NSExample": {Methods: []*Method{{
			Selector: "fill:a:b:c:d:e:f:g:count:",
			Retval:   &Arg{Typestr: String("v")},
			Arguments: ArgMap{
				2:  {Typestr: Deferred(axis.BitWidth, "l", "q")},
				10: {Name: "count", Typestr: String("Q")},
			},
		}}},
	}
	return fw
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no comments", "framework: X\n", "framework: X\n"},
		{"leading comment", "# header\nframework: X\n", "framework: X\n"},
		{"multiple comments", "# a\n# b\nframework: X\n", "framework: X\n"},
		{"comment only", "# nothing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripComments([]byte(tt.in))
			if string(got) != tt.want {
				t.Errorf("stripComments(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSaveLoadFramework(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Example.yaml")

	fw := testFramework()
	if err := SaveFramework(path, "generated file, do not edit", fw); err != nil {
		t.Fatalf("SaveFramework() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("# generated file, do not edit\n")) {
		t.Error("saved file missing comment header")
	}

	loaded, err := LoadFramework(path)
	if err != nil {
		t.Fatalf("LoadFramework() failed: %v", err)
	}
	if loaded.Name != "Example" {
		t.Errorf("Name = %q, want Example", loaded.Name)
	}
	if len(loaded.Archs) != 2 {
		t.Fatalf("Archs = %v, want two entries", loaded.Archs)
	}

	two := loaded.Definitions.Enum["NSExampleTwo"]
	if two == nil {
		t.Fatal("NSExampleTwo missing after round trip")
	}
	if !two.Value.IsDeferred() {
		t.Error("deferred enum value lost its shape")
	}
	if !two.Value.Equal(Deferred(axis.BitWidth, int64(2), int64(4))) {
		t.Errorf("deferred value changed: %s", two.Value.Render())
	}

	cls := loaded.Definitions.Classes["NSExample"]
	if cls == nil || len(cls.Methods) != 1 {
		t.Fatal("NSExample class missing after round trip")
	}
	args := cls.Methods[0].Arguments
	if len(args) != 2 || args[2] == nil || args[10] == nil {
		t.Fatalf("argument map lost entries: %v", args)
	}
	if !args[2].Typestr.Equal(Deferred(axis.BitWidth, "l", "q")) {
		t.Errorf("deferred argument typestr changed: %s", args[2].Typestr.Render())
	}
	if args[10].Name != "count" {
		t.Errorf("argument 10 name = %q, want count", args[10].Name)
	}

	// Reloading and re-marshaling must reproduce the saved document.
	again, err := MarshalFramework(loaded)
	if err != nil {
		t.Fatalf("MarshalFramework() after load failed: %v", err)
	}
	original, err := MarshalFramework(fw)
	if err != nil {
		t.Fatalf("MarshalFramework() failed: %v", err)
	}
	if !bytes.Equal(again, original) {
		t.Errorf("round trip changed the document:\n--- saved ---\n%s\n--- reloaded ---\n%s", original, again)
	}
}

func TestArgumentMapMarshalsNumericOrder(t *testing.T) {
	data, err := MarshalFramework(testFramework())
	if err != nil {
		t.Fatalf("MarshalFramework() failed: %v", err)
	}
	two := bytes.Index(data, []byte(" 2:\n"))
	ten := bytes.Index(data, []byte(" 10:\n"))
	if two < 0 || ten < 0 {
		t.Fatalf("argument indices missing or quoted:\n%s", data)
	}
	if ten < two {
		t.Error("argument index 10 emitted before index 2")
	}
}

func TestArgumentMapAcceptsQuotedKeys(t *testing.T) {
	doc := "selector: \"doThing:\"\nclass_method: false\narguments:\n  \"2\":\n    name: first\n  \"10\":\n    name: last\n"

	var m Method
	if err := yaml.Unmarshal([]byte(doc), &m); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if len(m.Arguments) != 2 {
		t.Fatalf("Arguments = %v, want entries 2 and 10", m.Arguments)
	}
	if m.Arguments[2] == nil || m.Arguments[2].Name != "first" {
		t.Errorf("argument 2 = %+v, want name first", m.Arguments[2])
	}
	if m.Arguments[10] == nil || m.Arguments[10].Name != "last" {
		t.Errorf("argument 10 = %+v, want name last", m.Arguments[10])
	}
}

func TestMarshalFrameworkDeterministic(t *testing.T) {
	first, err := MarshalFramework(testFramework())
	if err != nil {
		t.Fatalf("MarshalFramework() failed: %v", err)
	}
	second, err := MarshalFramework(testFramework())
	if err != nil {
		t.Fatalf("MarshalFramework() failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical frameworks marshaled to different bytes")
	}
}

func TestLoadScanRejectsUnknownArch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.yaml")
	if err := os.WriteFile(path, []byte("arch: mips\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadScan(path); err == nil {
		t.Fatal("LoadScan() accepted an unknown architecture")
	}
}

func TestLoadScanToleratesHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.yaml")
	content := "# scanner output\narch: i386\nsdk: \"10.5\"\ndefinitions:\n  enum:\n    NSOne:\n      value: 1\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	scan, err := LoadScan(path)
	if err != nil {
		t.Fatalf("LoadScan() failed: %v", err)
	}
	if scan.Arch != axis.I386 {
		t.Errorf("Arch = %s, want i386", scan.Arch)
	}
	if scan.Definitions.Enum["NSOne"] == nil {
		t.Error("enum section not decoded")
	}
}
