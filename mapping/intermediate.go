package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meigma/mapresolve/internal/errs"
)

// Intermediate is the parsed intermediate symbol table keyed by obfuscated class name.
type Intermediate struct {
	classes map[string]*IntermediateClass
}

// IntermediateClass holds the stable names of one obfuscated class.
type IntermediateClass struct {
	Obfuscated string
	Stable     string
	// Methods is keyed by obfuscated name followed by descriptor, e.g. "m()V".
	Methods map[string]string
	Fields  map[string]string
}

// Method returns the stable name of the obfuscated method name+descriptor.
func (c *IntermediateClass) Method(name, descriptor string) (string, bool) {
	s, ok := c.Methods[name+descriptor]
	return s, ok
}

// Field returns the stable name of the obfuscated field.
func (c *IntermediateClass) Field(name string) (string, bool) {
	s, ok := c.Fields[name]
	return s, ok
}

// Class returns the entry for an obfuscated class name.
func (t *Intermediate) Class(obfuscated string) (*IntermediateClass, bool) {
	c, ok := t.classes[obfuscated]
	return c, ok
}

// Len returns the number of classes.
func (t *Intermediate) Len() int {
	return len(t.classes)
}

// ParseIntermediate parses TSRG v1 or TSRG2 text.
//
// TSRG v1:
//
//	a net/minecraft/Foo
//		f f_67890_
//		m ()V m_12345_
//
// TSRG2 starts with a header naming its columns ("tsrg2 obf srg id") and may
// carry parameter and static lines at deeper indentation, which are ignored.
func ParseIntermediate(r io.Reader) (*Intermediate, error) {
	t := &Intermediate{classes: make(map[string]*IntermediateClass)}

	columns := 2
	var current *IntermediateClass
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimRight(sc.Text(), " \r")
		if strings.TrimSpace(raw) == "" || strings.HasPrefix(strings.TrimSpace(raw), "#") {
			continue
		}

		if lineNo == 1 && strings.HasPrefix(raw, "tsrg2 ") {
			columns = len(strings.Fields(raw)) - 1
			if columns < 2 {
				return nil, intermediateErr(lineNo, fmt.Errorf("header %q names fewer than two namespaces", raw))
			}
			continue
		}

		depth := len(raw) - len(strings.TrimLeft(raw, "\t"))
		cols := strings.Fields(raw)
		switch depth {
		case 0:
			if len(cols) < 2 {
				return nil, intermediateErr(lineNo, fmt.Errorf("class line %q needs obfuscated and stable names", raw))
			}
			current = &IntermediateClass{
				Obfuscated: cols[0],
				Stable:     cols[1],
				Methods:    make(map[string]string),
				Fields:     make(map[string]string),
			}
			t.classes[current.Obfuscated] = current
		case 1:
			if current == nil {
				return nil, intermediateErr(lineNo, errors.New("member before any class"))
			}
			if err := parseIntermediateMember(current, cols, columns); err != nil {
				return nil, intermediateErr(lineNo, err)
			}
		default:
			// parameter and static markers
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &errs.FormatError{Source: "intermediate table", Err: err}
	}
	return t, nil
}

func parseIntermediateMember(c *IntermediateClass, cols []string, columns int) error {
	switch {
	case len(cols) >= 3 && strings.HasPrefix(cols[1], "("):
		c.Methods[cols[0]+cols[1]] = cols[2]
	case len(cols) == columns:
		c.Fields[cols[0]] = cols[1]
	case len(cols) == columns+1:
		// field with descriptor: name desc stable ...
		c.Fields[cols[0]] = cols[2]
	default:
		return fmt.Errorf("member line %q has %d columns", strings.Join(cols, " "), len(cols))
	}
	return nil
}

func intermediateErr(lineNo int, err error) error {
	return &errs.FormatError{Source: fmt.Sprintf("intermediate table line %d", lineNo), Err: err}
}
