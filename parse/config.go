/*package parse reads the text config files that drive bubble searches. A
config file is a [section] header followed by variable assignments:

	[search.config]
	NGalaxies = 20
	BubbleRadii = 5, 7.5, 10, 12.5, 15
	LikeOnFlux = true # comments run to the end of the line

Modes register their variables with a ConfigVars set and get defaults,
type checking, and readable first-person parse errors for free.*/
package parse

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type varType int

const (
	intVar varType = iota
	floatVar
	stringVar
	boolVar
	intsVar
	floatsVar
)

func (v varType) String() string {
	switch v {
	case intVar:
		return "int"
	case floatVar:
		return "float"
	case stringVar:
		return "string"
	case boolVar:
		return "bool"
	case intsVar:
		return "int list"
	case floatsVar:
		return "float list"
	}
	panic("Impossible")
}

// article returns "a" or "an" for a type name in an error message.
func (v varType) article() string {
	if v.String()[0] == 'i' {
		return "an"
	}
	return "a"
}

type binding struct {
	typ     varType
	convert func(string) bool
}

// ConfigVars is a set of typed variable bindings for one config section.
// Registering a variable sets its default immediately; ReadConfig then
// overwrites whichever variables the file assigns.
type ConfigVars struct {
	name     string
	bindings map[string]binding
}

// NewConfigVars creates an empty variable set for the section [name].
func NewConfigVars(name string) *ConfigVars {
	return &ConfigVars{name: name, bindings: map[string]binding{}}
}

func (vars *ConfigVars) bind(name string, typ varType, conv func(string) bool) {
	vars.bindings[strings.ToLower(name)] = binding{typ, conv}
}

func (vars *ConfigVars) Int(ptr *int64, name string, value int64) {
	*ptr = value
	vars.bind(name, intVar, func(s string) bool {
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return false
		}
		*ptr = i
		return true
	})
}

func (vars *ConfigVars) Float(ptr *float64, name string, value float64) {
	*ptr = value
	vars.bind(name, floatVar, func(s string) bool {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false
		}
		*ptr = f
		return true
	})
}

func (vars *ConfigVars) String(ptr *string, name string, value string) {
	*ptr = value
	vars.bind(name, stringVar, func(s string) bool {
		*ptr = strings.Trim(s, " ")
		return true
	})
}

func (vars *ConfigVars) Bool(ptr *bool, name string, value bool) {
	*ptr = value
	vars.bind(name, boolVar, func(s string) bool {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false
		}
		*ptr = b
		return true
	})
}

func (vars *ConfigVars) Ints(ptr *[]int64, name string, value []int64) {
	*ptr = value
	vars.bind(name, intsVar, func(s string) bool {
		out := []int64{}
		for _, tok := range splitList(s) {
			i, err := strconv.ParseInt(tok, 10, 64)
			if err != nil {
				return false
			}
			out = append(out, i)
		}
		*ptr = out
		return true
	})
}

func (vars *ConfigVars) Floats(ptr *[]float64, name string, value []float64) {
	*ptr = value
	vars.bind(name, floatsVar, func(s string) bool {
		out := []float64{}
		for _, tok := range splitList(s) {
			f, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return false
			}
			out = append(out, f)
		}
		*ptr = out
		return true
	})
}

func splitList(s string) []string {
	toks := strings.Split(s, ",")
	for i := range toks {
		toks[i] = strings.Trim(toks[i], " ")
	}
	return toks
}

// assignment is one non-comment config line, split at its equals sign.
type assignment struct {
	name, val string
	lineNum   int
}

// ReadConfig parses fname into the registered variables. Variables the
// file never mentions keep their defaults. Variable names are matched
// case-insensitively.
func ReadConfig(fname string, vars *ConfigVars) error {
	bs, err := os.ReadFile(fname)
	if err != nil {
		return err
	}

	lines := stripComments(strings.Split(string(bs), "\n"))
	if len(lines) == 0 || lines[0].val != fmt.Sprintf("[%s]", vars.name) {
		return fmt.Errorf(
			"I expected the config file %s to start with the header "+
				"[%s], but didn't find it.", fname, vars.name,
		)
	}

	assocs, badLine := associations(lines[1:])
	if badLine != -1 {
		return fmt.Errorf(
			"I could not parse line %d of the config file %s because it "+
				"isn't a variable assignment.", badLine, fname,
		)
	}

	seen := map[string]int{}
	for _, a := range assocs {
		b, ok := vars.bindings[a.name]
		if !ok {
			return fmt.Errorf(
				"Line %d of the config file %s assigns a value to '%s', "+
					"but config files of type %s don't have that variable.",
				a.lineNum, fname, a.name, vars.name,
			)
		}
		if first, dup := seen[a.name]; dup {
			return fmt.Errorf(
				"Lines %d and %d of the config file %s both assign a "+
					"value to '%s'.", first, a.lineNum, fname, a.name,
			)
		}
		seen[a.name] = a.lineNum

		if !b.convert(a.val) {
			return fmt.Errorf(
				"I could not parse line %d of the config file %s because "+
					"'%s' expects values of type %s and '%s' cannot be "+
					"converted to %s %s.",
				a.lineNum, fname, a.name, b.typ, a.val, b.typ.article(), b.typ,
			)
		}
	}
	return nil
}

// stripComments removes everything after '#' on each line, drops blank
// lines, and remembers 1-based line numbers for error messages.
func stripComments(raw []string) []assignment {
	out := []assignment{}
	for i, line := range raw {
		if hash := strings.Index(line, "#"); hash != -1 {
			line = line[:hash]
		}
		line = strings.Trim(line, " \t")
		if len(line) == 0 {
			continue
		}
		out = append(out, assignment{val: line, lineNum: i + 1})
	}
	return out
}

// associations splits each remaining line at its equals sign. The second
// return value is the line number of the first malformed line, or -1.
func associations(lines []assignment) ([]assignment, int) {
	out := []assignment{}
	for _, l := range lines {
		eq := strings.Index(l.val, "=")
		if eq == -1 {
			return nil, l.lineNum
		}
		name := strings.ToLower(strings.Trim(l.val[:eq], " "))
		if len(name) == 0 {
			return nil, l.lineNum
		}
		out = append(out, assignment{
			name:    name,
			val:     strings.Trim(l.val[eq+1:], " "),
			lineNum: l.lineNum,
		})
	}
	return out, -1
}

// ExampleLines formats a ready-to-edit example config section from
// variable name/value pairs.
func ExampleLines(section string, pairs [][2]string) string {
	lines := []string{fmt.Sprintf("[%s]", section), ""}
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("%s = %s", p[0], p[1]))
	}
	return strings.Join(lines, "\n") + "\n"
}
