package internal

import "fmt"

// Key identifies a single reactive property on an object: a record field
// name, an ordered-sequence index, or one of the two distinguished symbolic
// keys (ALL, KEYS). Keys are comparable so they can be used directly as Go
// map keys inside the dependency registry (C3).
type Key struct {
	kind keyKind
	str  string
	idx  int
	sym  *symbol
}

type keyKind int

const (
	kindString keyKind = iota
	kindIndex
	kindSymbol
)

type symbol struct{ name string }

// ALL means "any property of this object" — used for whole-object
// dependencies such as iteration or full-enumeration reads.
var ALL = Key{kind: kindSymbol, sym: &symbol{name: "ALL"}}

// KEYS means "the set of own keys of this object" — used for key
// enumeration / membership (`has`) checks.
var KEYS = Key{kind: kindSymbol, sym: &symbol{name: "KEYS"}}

// StringKey builds a Key from a record field name.
func StringKey(s string) Key { return Key{kind: kindString, str: s} }

// IndexKey builds a Key from an ordered-sequence index.
func IndexKey(i int) Key { return Key{kind: kindIndex, idx: i} }

// IsSymbol reports whether k is one of the engine's own symbolic keys.
func (k Key) IsSymbol() bool { return k.kind == kindSymbol }

func (k Key) String() string {
	switch k.kind {
	case kindString:
		return k.str
	case kindIndex:
		return fmt.Sprintf("[%d]", k.idx)
	default:
		return "@" + k.sym.name
	}
}
