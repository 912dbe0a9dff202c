// Package metadata defines the record types shared by the three record
// sets bridgemeta works with: per-variant scans produced by the header
// parser, the hand-authored exception set, and the merged canonical set.
// All three use the same section shape; exceptions additionally carry
// ignore flags and *_override fields, and merged records may hold
// deferred leaves.
package metadata

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/goccy/go-yaml"
)

// ArgMap holds argument records keyed by index: the bridge index in
// merged method records, the human-authored index in exception sets.
type ArgMap map[int]*Arg

// Clone returns a deep copy.
func (m ArgMap) Clone() ArgMap {
	if m == nil {
		return nil
	}
	out := make(ArgMap, len(m))
	for i, a := range m {
		out[i] = a.Clone()
	}
	return out
}

// MarshalYAML emits integer keys in numeric order. Plain map emission
// would quote the keys and sort them lexically, putting index 10 before
// index 2 and producing a document that no longer decodes as an ArgMap.
func (m ArgMap) MarshalYAML() (any, error) {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make(yaml.MapSlice, 0, len(keys))
	for _, k := range keys {
		out = append(out, yaml.MapItem{Key: k, Value: m[k]})
	}
	return out, nil
}

// UnmarshalYAML accepts integer keys as well as the quoted decimal
// strings other emitters produce.
func (m *ArgMap) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[any]*Arg
	if err := unmarshal(&raw); err != nil {
		return err
	}
	out := make(ArgMap, len(raw))
	for k, a := range raw {
		idx, err := argIndex(k)
		if err != nil {
			return err
		}
		out[idx] = a
	}
	*m = out
	return nil
}

func argIndex(key any) (int, error) {
	switch k := key.(type) {
	case int:
		return k, nil
	case int64:
		return int(k), nil
	case uint64:
		return int(k), nil
	case string:
		idx, err := strconv.Atoi(k)
		if err != nil {
			return 0, fmt.Errorf("argument index %q is not an integer", k)
		}
		return idx, nil
	}
	return 0, fmt.Errorf("argument index %v is not an integer", key)
}

// LengthRef is a "c array length given by argument" reference: either a
// single argument index, or an input/output index pair. On disk a single
// index is a plain integer and a pair is a two-element sequence.
type LengthRef struct {
	In  int
	Out *int
}

// Shifted returns a copy with every element shifted by offset. Used when
// copying method overrides authored in unshifted coordinates.
func (l *LengthRef) Shifted(offset int) *LengthRef {
	if l == nil {
		return nil
	}
	out := &LengthRef{In: l.In + offset}
	if l.Out != nil {
		o := *l.Out + offset
		out.Out = &o
	}
	return out
}

// Clone returns a deep copy.
func (l *LengthRef) Clone() *LengthRef {
	return l.Shifted(0)
}

// MarshalYAML emits a scalar for a single index and a sequence for a pair.
func (l LengthRef) MarshalYAML() (any, error) {
	if l.Out != nil {
		return []int{l.In, *l.Out}, nil
	}
	return l.In, nil
}

// UnmarshalYAML accepts either shape.
func (l *LengthRef) UnmarshalYAML(unmarshal func(any) error) error {
	var pair []int
	if err := unmarshal(&pair); err == nil && len(pair) == 2 {
		l.In = pair[0]
		l.Out = &pair[1]
		return nil
	}
	return unmarshal(&l.In)
}

// Callable describes the signature of a function-pointer or block
// argument. Callables nest at most one level: an argument of a callable
// cannot itself carry a callable.
type Callable struct {
	Retval *Arg   `yaml:"retval,omitempty"`
	Args   []*Arg `yaml:"args,omitempty"`

	// Arguments holds overrides keyed by index in exception sets.
	Arguments ArgMap `yaml:"arguments,omitempty"`
}

// Clone returns a deep copy.
func (c *Callable) Clone() *Callable {
	if c == nil {
		return nil
	}
	out := &Callable{Retval: c.Retval.Clone(), Arguments: c.Arguments.Clone()}
	for _, a := range c.Args {
		out.Args = append(out.Args, a.Clone())
	}
	return out
}

// Arg describes one argument or return value, scanned or corrected.
type Arg struct {
	Name string `yaml:"name,omitempty"`

	// Typestr is the scanned type encoding. TypestrSpecial marks
	// encodings the scanner flagged as needing bridge attention; only
	// those participate in per-architecture type classification for
	// methods.
	Typestr        Value `yaml:"typestr,omitempty"`
	TypestrSpecial bool  `yaml:"typestr_special,omitempty"`

	// Type is the manually corrected encoding. It is authoritative over
	// Typestr and only ever written by the exception overlay.
	Type Value `yaml:"type,omitempty"`

	// TypeOverride appears in exception sets only; the overlay renames
	// it to Type when applying it.
	TypeOverride Value `yaml:"type_override,omitempty"`

	TypeModifier string `yaml:"type_modifier,omitempty"`
	SelOfType    string `yaml:"sel_of_type,omitempty"`

	CArrayOfFixedLength    *int       `yaml:"c_array_of_fixed_length,omitempty"`
	CArrayLengthInArg      *LengthRef `yaml:"c_array_length_in_arg,omitempty"`
	CArrayLengthInResult   bool       `yaml:"c_array_length_in_result,omitempty"`
	CArrayDelimitedByNull  bool       `yaml:"c_array_delimited_by_null,omitempty"`
	CArrayOfVariableLength bool       `yaml:"c_array_of_variable_length,omitempty"`

	PrintfFormat      bool  `yaml:"printf_format,omitempty"`
	FreeResult        bool  `yaml:"free_result,omitempty"`
	AlreadyRetained   bool  `yaml:"already_retained,omitempty"`
	AlreadyCFRetained bool  `yaml:"already_cfretained,omitempty"`
	NullAccepted      *bool `yaml:"null_accepted,omitempty"`

	FunctionPointer  *Callable `yaml:"function_pointer,omitempty"`
	Block            *Callable `yaml:"block,omitempty"`
	CallableRetained *bool     `yaml:"callable_retained,omitempty"`
}

// Clone returns a deep copy.
func (a *Arg) Clone() *Arg {
	if a == nil {
		return nil
	}
	out := *a
	out.CArrayOfFixedLength = cloneIntPtr(a.CArrayOfFixedLength)
	out.CArrayLengthInArg = a.CArrayLengthInArg.Clone()
	out.NullAccepted = cloneBoolPtr(a.NullAccepted)
	out.CallableRetained = cloneBoolPtr(a.CallableRetained)
	out.FunctionPointer = a.FunctionPointer.Clone()
	out.Block = a.Block.Clone()
	return &out
}

// Callable returns the nested callable signature, if any.
func (a *Arg) Callable() *Callable {
	if a.FunctionPointer != nil {
		return a.FunctionPointer
	}
	return a.Block
}

// Function describes a C function.
type Function struct {
	Ignore bool `yaml:"ignore,omitempty"`

	Retval *Arg   `yaml:"retval,omitempty"`
	Args   []*Arg `yaml:"args,omitempty"`

	// Arguments holds overrides keyed by index in exception sets.
	Arguments ArgMap `yaml:"arguments,omitempty"`

	Variadic              bool       `yaml:"variadic,omitempty"`
	CArrayDelimitedByNull bool       `yaml:"c_array_delimited_by_null,omitempty"`
	CArrayLengthInArg     *LengthRef `yaml:"c_array_length_in_arg,omitempty"`

	Availability string `yaml:"availability,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
	Suggestion   string `yaml:"suggestion,omitempty"`
}

// Clone returns a deep copy.
func (f *Function) Clone() *Function {
	if f == nil {
		return nil
	}
	out := *f
	out.Retval = f.Retval.Clone()
	out.Args = nil
	for _, a := range f.Args {
		out.Args = append(out.Args, a.Clone())
	}
	out.Arguments = f.Arguments.Clone()
	out.CArrayLengthInArg = f.CArrayLengthInArg.Clone()
	return &out
}

// Method describes an Objective-C method on a class, category or
// protocol. Scans record positional Args; the merged set records
// Arguments keyed by bridge index, which is the scan index shifted by
// two for the implicit receiver and selector slots.
type Method struct {
	Selector    string `yaml:"selector"`
	ClassMethod bool   `yaml:"class_method"`
	Ignore      bool   `yaml:"ignore,omitempty"`

	Retval *Arg   `yaml:"retval,omitempty"`
	Args   []*Arg `yaml:"args,omitempty"`

	// Arguments is keyed by shifted index in the merged set and by
	// unshifted, human-authored index in exception sets.
	Arguments ArgMap `yaml:"arguments,omitempty"`

	Variadic              bool       `yaml:"variadic,omitempty"`
	CArrayDelimitedByNull bool       `yaml:"c_array_delimited_by_null,omitempty"`
	CArrayLengthInArg     *LengthRef `yaml:"c_array_length_in_arg,omitempty"`

	// Visibility is scanner bookkeeping and never merged.
	Visibility string `yaml:"visibility,omitempty"`

	Availability string `yaml:"availability,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
	Suggestion   string `yaml:"suggestion,omitempty"`
}

// Clone returns a deep copy.
func (m *Method) Clone() *Method {
	if m == nil {
		return nil
	}
	out := *m
	out.Retval = m.Retval.Clone()
	out.Args = nil
	for _, a := range m.Args {
		out.Args = append(out.Args, a.Clone())
	}
	out.Arguments = m.Arguments.Clone()
	out.CArrayLengthInArg = m.CArrayLengthInArg.Clone()
	return &out
}

// Property describes an Objective-C property. Before merging, properties
// are synthesized into their getter and, unless read-only, setter
// methods; the merged set contains only methods.
type Property struct {
	Name     string `yaml:"name"`
	Ignore   bool   `yaml:"ignore,omitempty"`
	Typestr  Value  `yaml:"typestr,omitempty"`
	ReadOnly bool   `yaml:"readonly,omitempty"`
	Getter   string `yaml:"getter,omitempty"`
	Setter   string `yaml:"setter,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// Class describes an Objective-C class with its category methods folded
// in by the scanner.
type Class struct {
	Ignore     bool        `yaml:"ignore,omitempty"`
	Methods    []*Method   `yaml:"methods,omitempty"`
	Properties []*Property `yaml:"properties,omitempty"`
}

// Protocol describes a formal or informal protocol.
type Protocol struct {
	Ignore     bool        `yaml:"ignore,omitempty"`
	Implements string      `yaml:"implements,omitempty"`
	Methods    []*Method   `yaml:"methods,omitempty"`
	Properties []*Property `yaml:"properties,omitempty"`
}

// EnumType describes an enumerated type declaration.
type EnumType struct {
	Ignore  bool   `yaml:"ignore,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Typestr Value  `yaml:"typestr,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// EnumValue describes one enumerator. Value is the only field expected to
// vary between architectures.
type EnumValue struct {
	Ignore   bool   `yaml:"ignore,omitempty"`
	Value    Value  `yaml:"value,omitempty"`
	EnumType string `yaml:"enum_type,omitempty"`

	Availability string `yaml:"availability,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
}

// Extern describes a global constant. Typestr is the only field expected
// to vary between architectures.
type Extern struct {
	Ignore       bool  `yaml:"ignore,omitempty"`
	Typestr      Value `yaml:"typestr,omitempty"`
	TypeOverride Value `yaml:"type_override,omitempty"`

	// Type is the manually corrected encoding in the merged set.
	Type Value `yaml:"type,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// CFType describes an opaque CoreFoundation handle type. The type-id
// function and toll-free bridge class come from the exception set.
type CFType struct {
	Ignore        bool   `yaml:"ignore,omitempty"`
	Typestr       Value  `yaml:"typestr,omitempty"`
	GetTypeIDFunc string `yaml:"gettypeid_func,omitempty"`
	Tollfree      string `yaml:"tollfree,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// Literal describes a literal constant such as a #define.
type Literal struct {
	Ignore bool  `yaml:"ignore,omitempty"`
	Value  Value `yaml:"value,omitempty"`

	Availability string `yaml:"availability,omitempty"`
	Comment      string `yaml:"comment,omitempty"`
}

// Struct describes a C struct.
type Struct struct {
	Ignore       bool     `yaml:"ignore,omitempty"`
	Typestr      Value    `yaml:"typestr,omitempty"`
	TypeOverride Value    `yaml:"type_override,omitempty"`
	Type         Value    `yaml:"type,omitempty"`
	Fieldnames   []string `yaml:"fieldnames,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// Alias describes a renamed constant or type.
type Alias struct {
	Ignore bool   `yaml:"ignore,omitempty"`
	Alias  string `yaml:"alias,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// Expression describes a constant defined by a C expression. The
// expression text must be identical across scans.
type Expression struct {
	Ignore     bool   `yaml:"ignore,omitempty"`
	Expression string `yaml:"expression,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// FuncMacro describes a function-like macro. The definition must be
// identical across scans.
type FuncMacro struct {
	Ignore     bool   `yaml:"ignore,omitempty"`
	Definition string `yaml:"definition,omitempty"`

	Availability string `yaml:"availability,omitempty"`
}

// Definitions holds every section of a record set. The same shape is
// used by scans, exception sets and merged output.
type Definitions struct {
	Aliases           map[string]*Alias      `yaml:"aliases,omitempty"`
	EnumTypes         map[string]*EnumType   `yaml:"enum_type,omitempty"`
	Enum              map[string]*EnumValue  `yaml:"enum,omitempty"`
	Externs           map[string]*Extern     `yaml:"externs,omitempty"`
	CFTypes           map[string]*CFType     `yaml:"cftypes,omitempty"`
	Literals          map[string]*Literal    `yaml:"literals,omitempty"`
	Structs           map[string]*Struct     `yaml:"structs,omitempty"`
	Expressions       map[string]*Expression `yaml:"expressions,omitempty"`
	FuncMacros        map[string]*FuncMacro  `yaml:"func_macros,omitempty"`
	Functions         map[string]*Function   `yaml:"functions,omitempty"`
	Classes           map[string]*Class      `yaml:"classes,omitempty"`
	FormalProtocols   map[string]*Protocol   `yaml:"formal_protocols,omitempty"`
	InformalProtocols map[string]*Protocol   `yaml:"informal_protocols,omitempty"`
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBoolPtr(p *bool) *bool {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
