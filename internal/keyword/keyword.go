// Package keyword models the set of keyword categories reported by the
// inference engine in a single notification.
package keyword

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"
	"strings"
)

// Set is a bitmask of keyword categories detected together.
type Set uint32

// Fixed categories. Object bits start at Green and are assigned in
// vocabulary order, so the default vocabulary (green, red) matches the
// constants below.
const (
	Activate Set = 1 << iota
	Deactivate
	Unknown
	Green
	Red
)

// Actions is the mask of both action keywords.
const Actions = Activate | Deactivate

const (
	firstObjectBit = 3
	maxObjects     = 32 - firstObjectBit
)

var (
	ErrUnknownKeyword = errors.New("unknown keyword")
	ErrEmptySet       = errors.New("empty keyword set")
)

func (s Set) Has(f Set) bool    { return f != 0 && s&f == f }
func (s Set) Any(mask Set) bool { return s&mask != 0 }
func (s Set) IsEmpty() bool     { return s == 0 }

// Single reports whether exactly one bit is set.
func (s Set) Single() bool { return s != 0 && s&(s-1) == 0 }

// String does not know the configured object names, so object bits print
// as objN (N is the position in the vocabulary). Use Vocabulary.Format for
// named output.
func (s Set) String() string {
	if s == 0 {
		return "NONE"
	}
	var parts []string
	for b := s >> firstObjectBit; b != 0; b &= b - 1 {
		parts = append(parts, fmt.Sprintf("obj%d", bits.TrailingZeros32(uint32(b))))
	}
	for _, f := range []struct {
		flag Set
		name string
	}{{Activate, "ACTIVATE"}, {Deactivate, "DEACTIVATE"}, {Unknown, "UNKNOWN"}} {
		if s.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Vocabulary maps keyword names to bits. The action and unknown names are
// always present; object names are configured.
type Vocabulary struct {
	names   map[string]Set
	objects []string
	mask    Set
}

var defaultVocab = mustVocabulary("green", "red")

// Default returns the green/red vocabulary.
func Default() *Vocabulary { return defaultVocab }

// NewVocabulary assigns one bit per object name, in order.
func NewVocabulary(objects ...string) (*Vocabulary, error) {
	if len(objects) == 0 {
		return nil, errors.New("vocabulary needs at least one object")
	}
	if len(objects) > maxObjects {
		return nil, fmt.Errorf("vocabulary supports at most %d objects, got %d", maxObjects, len(objects))
	}
	v := &Vocabulary{
		names: map[string]Set{
			"activate":   Activate,
			"deactivate": Deactivate,
			"unknown":    Unknown,
		},
	}
	for i, raw := range objects {
		name := normalize(raw)
		if name == "" {
			return nil, fmt.Errorf("object %d has an empty name", i)
		}
		if _, dup := v.names[name]; dup {
			return nil, fmt.Errorf("object name %q is reserved or duplicated", name)
		}
		f := Set(1) << (firstObjectBit + i)
		v.names[name] = f
		v.objects = append(v.objects, name)
		v.mask |= f
	}
	return v, nil
}

func mustVocabulary(objects ...string) *Vocabulary {
	v, err := NewVocabulary(objects...)
	if err != nil {
		panic(err)
	}
	return v
}

// Objects returns the mask of all object bits.
func (v *Vocabulary) Objects() Set { return v.mask }

// All returns every bit this vocabulary can produce.
func (v *Vocabulary) All() Set { return v.mask | Actions | Unknown }

// ObjectNames returns object names in bit order.
func (v *Vocabulary) ObjectNames() []string {
	out := make([]string, len(v.objects))
	copy(out, v.objects)
	return out
}

// Flag looks up a single keyword by name.
func (v *Vocabulary) Flag(name string) (Set, bool) {
	f, ok := v.names[normalize(name)]
	return f, ok
}

// ObjectName returns the name of a single object bit.
func (v *Vocabulary) ObjectName(f Set) (string, bool) {
	if !f.Single() || !v.mask.Has(f) {
		return "", false
	}
	i := bits.TrailingZeros32(uint32(f)) - firstObjectBit
	return v.objects[i], true
}

// Parse reads a list such as "green,activate" or "GREEN|ACTIVATE".
func (v *Vocabulary) Parse(s string) (Set, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '|' || r == '+' || r == ' ' || r == '\t'
	})
	return v.ParseList(fields)
}

// ParseList combines individual keyword names into one set.
func (v *Vocabulary) ParseList(names []string) (Set, error) {
	var out Set
	for _, n := range names {
		f, ok := v.Flag(n)
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownKeyword, n)
		}
		out |= f
	}
	if out == 0 {
		return 0, ErrEmptySet
	}
	return out, nil
}

// Names lists the lowercase keyword names present in s, objects first.
func (v *Vocabulary) Names(s Set) []string {
	var out []string
	for _, name := range v.objects {
		if s.Has(v.names[name]) {
			out = append(out, name)
		}
	}
	fixed := []string{"activate", "deactivate", "unknown"}
	for _, name := range fixed {
		if s.Has(v.names[name]) {
			out = append(out, name)
		}
	}
	return out
}

// Format renders s as "GREEN|ACTIVATE". Bits outside the vocabulary are
// shown as bitN.
func (v *Vocabulary) Format(s Set) string {
	if s == 0 {
		return "NONE"
	}
	parts := v.Names(s)
	for i := range parts {
		parts[i] = strings.ToUpper(parts[i])
	}
	if extra := s &^ v.All(); extra != 0 {
		var idx []int
		for b := extra; b != 0; b &= b - 1 {
			idx = append(idx, bits.TrailingZeros32(uint32(b)))
		}
		sort.Ints(idx)
		for _, i := range idx {
			parts = append(parts, fmt.Sprintf("bit%d", i))
		}
	}
	return strings.Join(parts, "|")
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
