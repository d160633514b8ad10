package symtab

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrDuplicateDeclaration = errors.New("duplicate declaration")

type Type int

const (
	Untyped Type = iota
	Int
	Float
	String
)

func (t Type) String() string {
	switch t {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	default:
		return ""
	}
}

// ParseType normalizes the type names used by the front end.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int", "integer":
		return Int, nil
	case "float":
		return Float, nil
	case "string":
		return String, nil
	}
	return Untyped, fmt.Errorf("unknown type %q", name)
}

type Entry struct {
	Name   string
	Type   Type
	Value  string
	Length string
}

// Registration is a deferred typed upsert. Code generators return these so the
// table is only touched after a run has succeeded.
type Registration struct {
	Name  string
	Type  Type
	Value string
}

// Table maps names to entries and remembers the order of first registration.
type Table struct {
	entries map[string]*Entry
	order   []string
}

func New() *Table {
	return &Table{
		entries: make(map[string]*Entry),
	}
}

func (st *Table) insert(e *Entry) {
	st.entries[e.Name] = e
	st.order = append(st.order, e.Name)
}

// Upsert registers a name without type or value. Existing entries are kept.
func (st *Table) Upsert(name string) {
	if _, ok := st.entries[name]; ok {
		return
	}
	st.insert(&Entry{Name: name})
}

// UpsertTyped registers a constant-like entry. It is a no-op when the name is
// already present.
func (st *Table) UpsertTyped(name string, typ Type, value string) {
	if _, ok := st.entries[name]; ok {
		return
	}
	length := ""
	if typ != Untyped || value != "" {
		length = fmt.Sprintf("%d", computeLength(value, typ))
	}
	st.insert(&Entry{Name: name, Type: typ, Value: value, Length: length})
}

// DeclareType assigns a type to an identifier, creating it if needed. An
// identifier can only be typed once.
func (st *Table) DeclareType(name string, typ Type) error {
	e, ok := st.entries[name]
	if !ok {
		e = &Entry{Name: name}
		st.insert(e)
	}
	if e.Type != Untyped {
		return fmt.Errorf("%w: %s is already declared as %s", ErrDuplicateDeclaration, name, e.Type)
	}
	e.Type = typ
	return nil
}

// DeclareBulk declares a list of identifiers with one type. New names get the
// length of the name itself; names that already carry a type keep it.
func (st *Table) DeclareBulk(names []string, typ Type) {
	for _, name := range names {
		if name == "" {
			continue
		}
		e, ok := st.entries[name]
		if !ok {
			st.insert(&Entry{Name: name, Type: typ, Length: fmt.Sprintf("%d", len(name))})
			continue
		}
		if e.Type == Untyped {
			e.Type = typ
		}
	}
}

func (st *Table) Apply(regs []Registration) {
	for _, r := range regs {
		if r.Type == Untyped && r.Value == "" {
			st.Upsert(r.Name)
		} else {
			st.UpsertTyped(r.Name, r.Type, r.Value)
		}
	}
}

func (st *Table) Lookup(name string) (Entry, bool) {
	e, ok := st.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (st *Table) Len() int {
	return len(st.order)
}

// Entries returns all entries in registration order.
func (st *Table) Entries() []Entry {
	result := make([]Entry, 0, len(st.order))
	for _, name := range st.order {
		result = append(result, *st.entries[name])
	}
	return result
}

// computeLength counts digits for numbers and characters without the quotes
// for strings.
func computeLength(value string, typ Type) int {
	switch typ {
	case Int, Float:
		n := 0
		for _, r := range value {
			if unicode.IsDigit(r) {
				n++
			}
		}
		return n
	case String:
		if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			return len([]rune(value)) - 2
		}
	}
	return len([]rune(value))
}
