package metadata

import (
	"sort"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/errors"
)

// Variant identifies one scan pass: an architecture tag from the static
// table plus the SDK release the headers came from.
type Variant struct {
	Arch axis.Arch `yaml:"arch"`
	SDK  string    `yaml:"sdk,omitempty"`
}

// String renders the variant for diagnostics.
func (v Variant) String() string {
	if v.SDK == "" {
		return string(v.Arch)
	}
	return string(v.Arch) + "@" + v.SDK
}

// Scan is one per-variant record set as produced by the header parser.
type Scan struct {
	Variant     `yaml:",inline"`
	Definitions Definitions `yaml:"definitions"`
}

// Validate checks that the scan is tagged with a known architecture.
func (s *Scan) Validate() error {
	if !axis.Known(s.Arch) {
		return errors.NewValidationError(string(s.Arch), "arch",
			errors.ErrUnknownArch.Error())
	}
	return nil
}

// ExceptionSet is the hand-authored correction record set for one
// framework. It shares the section shape of a scan and is read-only
// during a merge pass.
type ExceptionSet struct {
	Framework   string      `yaml:"framework,omitempty"`
	Definitions Definitions `yaml:"definitions"`
}

// Empty returns an exception set with no corrections.
func Empty() *ExceptionSet {
	return &ExceptionSet{}
}

// Framework is the merged canonical record set: one description of the
// framework's entities with every leaf either concrete or a deferred
// axis selection.
type Framework struct {
	Name        string      `yaml:"framework,omitempty"`
	Archs       []axis.Arch `yaml:"archs"`
	SDKs        []string    `yaml:"sdks,omitempty"`
	Definitions Definitions `yaml:"definitions"`
}

// NewFramework builds an empty merged record set covering the given
// variants. Architecture and SDK lists are sorted so output is stable.
func NewFramework(name string, variants []Variant) *Framework {
	archSet := make(map[axis.Arch]struct{})
	sdkSet := make(map[string]struct{})
	for _, v := range variants {
		archSet[v.Arch] = struct{}{}
		if v.SDK != "" {
			sdkSet[v.SDK] = struct{}{}
		}
	}

	fw := &Framework{Name: name}
	for a := range archSet {
		fw.Archs = append(fw.Archs, a)
	}
	sort.Slice(fw.Archs, func(i, j int) bool { return fw.Archs[i] < fw.Archs[j] })
	for s := range sdkSet {
		fw.SDKs = append(fw.SDKs, s)
	}
	sort.Strings(fw.SDKs)
	return fw
}
