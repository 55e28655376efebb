package mapping

import (
	"maps"
	"slices"
	"strings"
)

// ClassMappings holds the retained renames of one class.
type ClassMappings struct {
	// Methods maps a public method name to its stable names in discovery order.
	Methods map[string][]string
	// Fields maps a public field name to its stable name.
	Fields map[string]string
}

func (c ClassMappings) clone() ClassMappings {
	out := ClassMappings{
		Methods: make(map[string][]string, len(c.Methods)),
		Fields:  maps.Clone(c.Fields),
	}
	if out.Fields == nil {
		out.Fields = map[string]string{}
	}
	for k, v := range c.Methods {
		out.Methods[k] = slices.Clone(v)
	}
	return out
}

// Table is the composed public-name to stable-name lookup table.
// Class keys are dot-separated public names.
type Table struct {
	classes map[string]ClassMappings
}

// Stats summarizes a Table.
type Stats struct {
	Classes     int
	Methods     int
	Overloads   int // stable method names beyond the first per public method
	Fields      int
	StableNames int
}

// Len returns the number of classes with at least one rename.
func (t *Table) Len() int {
	return len(t.classes)
}

// Classes returns the class names in sorted order.
func (t *Table) Classes() []string {
	return slices.Sorted(maps.Keys(t.classes))
}

// Class returns a copy of the renames recorded for class.
func (t *Table) Class(class string) (ClassMappings, bool) {
	c, ok := t.classes[normalizeClass(class)]
	if !ok {
		return ClassMappings{}, false
	}
	return c.clone(), true
}

// Methods returns the stable names for a public method, or nil.
func (t *Table) Methods(class, name string) []string {
	c, ok := t.classes[normalizeClass(class)]
	if !ok {
		return nil
	}
	return slices.Clone(c.Methods[name])
}

// Field returns the stable name for a public field.
func (t *Table) Field(class, name string) (string, bool) {
	c, ok := t.classes[normalizeClass(class)]
	if !ok {
		return "", false
	}
	s, ok := c.Fields[name]
	return s, ok
}

// Stats counts the entries of the table.
func (t *Table) Stats() Stats {
	var s Stats
	s.Classes = len(t.classes)
	for _, c := range t.classes {
		s.Methods += len(c.Methods)
		s.Fields += len(c.Fields)
		s.StableNames += len(c.Fields)
		for _, names := range c.Methods {
			s.StableNames += len(names)
			s.Overloads += len(names) - 1
		}
	}
	return s
}

func normalizeClass(class string) string {
	return strings.ReplaceAll(class, "/", ".")
}
