package mapping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meigma/mapresolve/internal/errs"
)

// Official is the parsed official symbol table, in file order.
type Official struct {
	classes  []*OfficialClass
	byPublic map[string]*OfficialClass
	byObf    map[string]string
}

// OfficialClass is one class of the official table.
type OfficialClass struct {
	Public     string
	Obfuscated string
	Methods    []OfficialMethod
	Fields     []OfficialField
}

// OfficialMethod is one method of an official class.
type OfficialMethod struct {
	Public     string
	Obfuscated string
	// Descriptor is the JVM descriptor in obfuscated name space, e.g. (La;I)V.
	Descriptor string

	returns string
	params  []string
}

// OfficialField is one field of an official class.
type OfficialField struct {
	Public     string
	Obfuscated string
	Type       string
}

// Classes returns the classes in file order.
func (o *Official) Classes() []*OfficialClass {
	return o.classes
}

// Class returns the class with the given public name.
func (o *Official) Class(public string) (*OfficialClass, bool) {
	c, ok := o.byPublic[public]
	return c, ok
}

// ObfuscatedName maps a public class name to its obfuscated name.
func (o *Official) ObfuscatedName(public string) (string, bool) {
	c, ok := o.byPublic[public]
	if !ok {
		return "", false
	}
	return c.Obfuscated, true
}

// PublicName maps an obfuscated class name to its public name.
func (o *Official) PublicName(obfuscated string) (string, bool) {
	p, ok := o.byObf[obfuscated]
	return p, ok
}

// Len returns the number of classes.
func (o *Official) Len() int {
	return len(o.classes)
}

// ParseOfficial parses a ProGuard-format mapping:
//
//	# comment
//	com.example.Foo -> a:
//	    int value -> f
//	    1:4:void doThing(java.lang.String,int[]):12:15 -> m
func ParseOfficial(r io.Reader) (*Official, error) {
	o := &Official{
		byPublic: make(map[string]*OfficialClass),
		byObf:    make(map[string]string),
	}

	var current *OfficialClass
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := strings.TrimRight(sc.Text(), " \t\r")
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if raw[0] != ' ' && raw[0] != '\t' {
			c, err := parseOfficialClass(line)
			if err != nil {
				return nil, officialErr(lineNo, err)
			}
			if _, dup := o.byPublic[c.Public]; dup {
				return nil, officialErr(lineNo, fmt.Errorf("duplicate class %s", c.Public))
			}
			o.classes = append(o.classes, c)
			o.byPublic[c.Public] = c
			o.byObf[c.Obfuscated] = c.Public
			current = c
			continue
		}

		if current == nil {
			return nil, officialErr(lineNo, errors.New("member before any class"))
		}
		if err := parseOfficialMember(current, line); err != nil {
			return nil, officialErr(lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &errs.FormatError{Source: "official table", Err: err}
	}

	for _, c := range o.classes {
		for i := range c.Methods {
			m := &c.Methods[i]
			m.Descriptor = o.methodDescriptor(m.params, m.returns)
		}
	}
	return o, nil
}

func officialErr(lineNo int, err error) error {
	return &errs.FormatError{Source: fmt.Sprintf("official table line %d", lineNo), Err: err}
}

func parseOfficialClass(line string) (*OfficialClass, error) {
	if !strings.HasSuffix(line, ":") {
		return nil, fmt.Errorf("class line %q does not end with ':'", line)
	}
	public, obf, ok := strings.Cut(strings.TrimSuffix(line, ":"), " -> ")
	if !ok || public == "" || obf == "" {
		return nil, fmt.Errorf("class line %q is not 'name -> obfuscated:'", line)
	}
	return &OfficialClass{Public: strings.TrimSpace(public), Obfuscated: strings.TrimSpace(obf)}, nil
}

func parseOfficialMember(c *OfficialClass, line string) error {
	left, obf, ok := strings.Cut(line, " -> ")
	if !ok || obf == "" {
		return fmt.Errorf("member line %q is not 'member -> obfuscated'", line)
	}
	obf = strings.TrimSpace(obf)

	open := strings.IndexByte(left, '(')
	if open < 0 {
		typ, name, ok := splitTypeName(left)
		if !ok {
			return fmt.Errorf("field line %q has no type", line)
		}
		c.Fields = append(c.Fields, OfficialField{Public: name, Obfuscated: obf, Type: typ})
		return nil
	}

	closeIdx := strings.IndexByte(left[open:], ')')
	if closeIdx < 0 {
		return fmt.Errorf("method line %q has unbalanced parentheses", line)
	}
	closeIdx += open

	// Drop the leading "start:end:" line range, if any.
	head := left[:open]
	if i := strings.LastIndexByte(head, ':'); i >= 0 {
		head = head[i+1:]
	}
	ret, name, ok := splitTypeName(head)
	if !ok {
		return fmt.Errorf("method line %q has no return type", line)
	}

	var params []string
	if args := strings.TrimSpace(left[open+1 : closeIdx]); args != "" {
		for _, p := range strings.Split(args, ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}
	c.Methods = append(c.Methods, OfficialMethod{
		Public:     name,
		Obfuscated: obf,
		returns:    ret,
		params:     params,
	})
	return nil
}

func splitTypeName(s string) (typ, name string, ok bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, ' ')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), s[i+1:], true
}

var primitiveDescriptors = map[string]string{
	"void":    "V",
	"boolean": "Z",
	"byte":    "B",
	"char":    "C",
	"short":   "S",
	"int":     "I",
	"long":    "J",
	"float":   "F",
	"double":  "D",
}

func (o *Official) methodDescriptor(params []string, ret string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range params {
		b.WriteString(o.typeDescriptor(p))
	}
	b.WriteByte(')')
	b.WriteString(o.typeDescriptor(ret))
	return b.String()
}

// typeDescriptor converts a source type to a JVM descriptor, mapping class
// types to their obfuscated names where the table knows them.
func (o *Official) typeDescriptor(t string) string {
	dims := 0
	for strings.HasSuffix(t, "[]") {
		dims++
		t = strings.TrimSuffix(t, "[]")
	}
	prefix := strings.Repeat("[", dims)
	if p, ok := primitiveDescriptors[t]; ok {
		return prefix + p
	}
	if c, ok := o.byPublic[t]; ok {
		t = c.Obfuscated
	}
	return prefix + "L" + strings.ReplaceAll(t, ".", "/") + ";"
}
