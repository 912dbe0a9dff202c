// Package axis defines the static architecture table and the hardware/ABI
// axes along which scanned values are allowed to differ.
//
// Every scan variant is tagged with an architecture drawn from a fixed,
// enumerated table. Each architecture maps to a pointer-width class (32 or
// 64 bit) and a byte-order class (little or big endian). When two scans
// disagree on a value, the disagreement is legal only when the two sides
// split cleanly along exactly one of those axes; everything else is a
// conflict that needs a hand-authored exception.
package axis

import (
	"sort"
	"strings"
)

// Arch is an architecture tag as produced by the header scanner.
type Arch string

// The supported architecture tags.
const (
	I386   Arch = "i386"
	X86_64 Arch = "x86_64"
	PPC    Arch = "ppc"
	PPC64  Arch = "ppc64"
	ARM64  Arch = "arm64"
)

// Width is the pointer-width class of an architecture.
type Width int

// Width classes.
const (
	Width32 Width = 32
	Width64 Width = 64
)

// ByteOrder is the byte-order class of an architecture.
type ByteOrder int

// Byte-order classes.
const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Axis names a recognized hardware/ABI dimension.
type Axis string

// The two recognized axes.
const (
	// BitWidth selects between a 32-bit and a 64-bit value at runtime.
	BitWidth Axis = "bitwidth"

	// ByteOrderAxis selects between a little-endian and a big-endian
	// value at runtime.
	ByteOrderAxis Axis = "byteorder"
)

// traits is the static classification of one architecture.
type traits struct {
	width Width
	order ByteOrder
}

var table = map[Arch]traits{
	I386:   {Width32, LittleEndian},
	X86_64: {Width64, LittleEndian},
	PPC:    {Width32, BigEndian},
	PPC64:  {Width64, BigEndian},
	ARM64:  {Width64, LittleEndian},
}

// Known reports whether tag is in the architecture table.
func Known(tag Arch) bool {
	_, ok := table[tag]
	return ok
}

// WidthOf returns the pointer-width class of tag. The second return is
// false for tags outside the table.
func WidthOf(tag Arch) (Width, bool) {
	t, ok := table[tag]
	return t.width, ok
}

// OrderOf returns the byte-order class of tag. The second return is false
// for tags outside the table.
func OrderOf(tag Arch) (ByteOrder, bool) {
	t, ok := table[tag]
	return t.order, ok
}

// Set is a set of architecture tags.
type Set map[Arch]struct{}

// NewSet builds a Set from tags.
func NewSet(tags ...Arch) Set {
	s := make(Set, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Add inserts tag into the set.
func (s Set) Add(tag Arch) { s[tag] = struct{}{} }

// Contains reports whether tag is in the set.
func (s Set) Contains(tag Arch) bool {
	_, ok := s[tag]
	return ok
}

// Equal reports whether s and o contain the same tags.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for t := range s {
		if !o.Contains(t) {
			return false
		}
	}
	return true
}

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []Arch {
	out := make([]Arch, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String renders the set as a comma-joined sorted list.
func (s Set) String() string {
	tags := s.Sorted()
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// side selects the architectures of present that fall on one side of an
// axis.
func side(present Set, match func(traits) bool) Set {
	out := make(Set)
	for tag := range present {
		if t, ok := table[tag]; ok && match(t) {
			out.Add(tag)
		}
	}
	return out
}

// Split is the outcome of a successful axis resolution: the axis along
// which two value classes differ, with A holding the 32-bit (or
// little-endian) side and B the 64-bit (or big-endian) side.
type Split struct {
	Axis Axis

	// Swapped is true when the second input class is the A side.
	Swapped bool
}

// Resolve tests whether two architecture sets form a legal single-axis
// partition of the architectures actually present in this run. The test
// order is fixed: bit width first, then byte order. A set matches a side
// only when it equals exactly that side's members of present, so a lone
// i386 scan against a lone x86_64 scan resolves even though ppc and ppc64
// exist in the table.
func Resolve(first, second, present Set) (Split, bool) {
	w32 := side(present, func(t traits) bool { return t.width == Width32 })
	w64 := side(present, func(t traits) bool { return t.width == Width64 })

	switch {
	case first.Equal(w32) && second.Equal(w64):
		return Split{Axis: BitWidth}, true
	case second.Equal(w32) && first.Equal(w64):
		return Split{Axis: BitWidth, Swapped: true}, true
	}

	little := side(present, func(t traits) bool { return t.order == LittleEndian })
	big := side(present, func(t traits) bool { return t.order == BigEndian })

	switch {
	case first.Equal(little) && second.Equal(big):
		return Split{Axis: ByteOrderAxis}, true
	case second.Equal(little) && first.Equal(big):
		return Split{Axis: ByteOrderAxis, Swapped: true}, true
	}

	return Split{}, false
}
