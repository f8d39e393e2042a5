package cpbp

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Model is a declarative problem description, the YAML form consumed by
// cmd/bpsolve. Variables are declared with inclusive ranges; constraints
// reference them by name.
//
// Example:
//
//	variables:
//	  - {name: x, min: 0, max: 2}
//	  - {name: y, min: 0, max: 2}
//	constraints:
//	  - {type: notEqual, vars: [x, y]}
//	  - {type: table, vars: [x, y], tuples: [[0, 1], [1, 2], [2, 0]]}
type Model struct {
	Variables   []ModelVar        `yaml:"variables"`
	Constraints []ModelConstraint `yaml:"constraints"`
}

// ModelVar declares a finite-domain variable with range [Min,Max].
type ModelVar struct {
	Name string `yaml:"name"`
	Min  int    `yaml:"min"`
	Max  int    `yaml:"max"`
}

// ModelConstraint declares a constraint over named variables. Type is
// "notEqual" (optional offset, meaning vars[0] != vars[1] + offset) or
// "table" (explicit tuples).
type ModelConstraint struct {
	Type   string   `yaml:"type"`
	Vars   []string `yaml:"vars"`
	Offset int      `yaml:"offset"`
	Tuples [][]int  `yaml:"tuples"`
}

// LoadModel decodes a YAML model and validates its structure.
func LoadModel(r io.Reader) (*Model, error) {
	var m Model
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if len(m.Variables) == 0 {
		return nil, fmt.Errorf("%w: no variables declared", ErrInvalidModel)
	}
	seen := make(map[string]bool, len(m.Variables))
	for _, mv := range m.Variables {
		if mv.Name == "" {
			return nil, fmt.Errorf("%w: variable without a name", ErrInvalidModel)
		}
		if seen[mv.Name] {
			return nil, fmt.Errorf("%w: duplicate variable %q", ErrInvalidModel, mv.Name)
		}
		if mv.Max < mv.Min {
			return nil, fmt.Errorf("%w: variable %q has empty range", ErrInvalidModel, mv.Name)
		}
		seen[mv.Name] = true
	}
	for i, mc := range m.Constraints {
		switch mc.Type {
		case "notEqual":
			if len(mc.Vars) != 2 {
				return nil, fmt.Errorf("%w: constraint %d: notEqual needs exactly 2 vars", ErrInvalidModel, i)
			}
		case "table":
			if len(mc.Vars) == 0 || len(mc.Tuples) == 0 {
				return nil, fmt.Errorf("%w: constraint %d: table needs vars and tuples", ErrInvalidModel, i)
			}
			for _, t := range mc.Tuples {
				if len(t) != len(mc.Vars) {
					return nil, fmt.Errorf("%w: constraint %d: tuple arity mismatch", ErrInvalidModel, i)
				}
			}
		default:
			return nil, fmt.Errorf("%w: constraint %d: unknown type %q", ErrInvalidModel, i, mc.Type)
		}
		for _, name := range mc.Vars {
			if !seen[name] {
				return nil, fmt.Errorf("%w: constraint %d: unknown variable %q", ErrInvalidModel, i, name)
			}
		}
	}
	return &m, nil
}

// Build declares the model's variables and posts its constraints on cp.
// All variables are created before any constraint so the ARITY weighing
// scheme sees the full registry. Returns the variables by name.
func (m *Model) Build(cp *Solver) (map[string]*IntVar, error) {
	vars := make(map[string]*IntVar, len(m.Variables))
	for _, mv := range m.Variables {
		v := cp.NewVar(mv.Min, mv.Max)
		v.SetName(mv.Name)
		vars[mv.Name] = v
	}
	for i, mc := range m.Constraints {
		scope := make([]Var, len(mc.Vars))
		for j, name := range mc.Vars {
			scope[j] = vars[name]
		}
		var c Constraint
		switch mc.Type {
		case "notEqual":
			c = NewNotEqual(cp, scope[0], scope[1], mc.Offset)
		case "table":
			c = NewTable(cp, scope, mc.Tuples)
		}
		if err := cp.Post(c); err != nil {
			return nil, fmt.Errorf("post constraint %d (%s): %w", i, mc.Type, err)
		}
	}
	return vars, nil
}
