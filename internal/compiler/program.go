package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/ChrisHughes24/lean/internal/expr"
	"github.com/ChrisHughes24/lean/internal/rules"
	"github.com/ChrisHughes24/lean/internal/tctx"
)

// Program is a compiled simplification program: global declarations and
// rewrite rules, both in source order.
type Program struct {
	Decls []tctx.Decl
	Rules []rules.Rule

	// positions of compiled fields, keyed "decls.<name>" / "rules.<name>"
	pos map[string]token.Pos
}

// Pos returns the source position of a declaration or rule field, e.g.
// "rules.add_zero".
func (p *Program) Pos(field string) token.Pos {
	return p.pos[field]
}

// CompileValue parses a CUE value into a Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must be the program struct:
//
//	decls: zero: type: "Nat"
//	rules: add_zero: {lhs: "(add ?n zero)", rhs: "?n"}
//
// CompileValue checks shapes and expression syntax only. Use Validate for
// semantic checks, or Load for both.
func CompileValue(v cue.Value) (*Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	p := &Program{pos: make(map[string]token.Pos)}

	var err error
	if p.Decls, err = parseDecls(v, p.pos); err != nil {
		return nil, err
	}
	if p.Rules, err = parseRules(v, p.pos); err != nil {
		return nil, err
	}
	return p, nil
}

// CompileSource compiles CUE source text. filename is used in positions.
func CompileSource(filename, src string) (*Program, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return CompileValue(v)
}

// CompileFile reads and compiles a .cue program file.
func CompileFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return CompileSource(path, string(data))
}

// Load compiles, validates and builds a program in one call. Validation
// errors are returned joined.
func Load(v cue.Value) (*Program, *tctx.Env, *rules.Set, error) {
	p, err := CompileValue(v)
	if err != nil {
		return nil, nil, nil, err
	}
	return p.load()
}

// LoadSource is Load for CUE source text.
func LoadSource(filename, src string) (*Program, *tctx.Env, *rules.Set, error) {
	p, err := CompileSource(filename, src)
	if err != nil {
		return nil, nil, nil, err
	}
	return p.load()
}

// LoadFile is Load for a .cue file.
func LoadFile(path string) (*Program, *tctx.Env, *rules.Set, error) {
	p, err := CompileFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return p.load()
}

func (p *Program) load() (*Program, *tctx.Env, *rules.Set, error) {
	if verrs := Validate(p); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, nil, nil, joinErrors(errs)
	}
	env, set, err := p.Build()
	if err != nil {
		return nil, nil, nil, err
	}
	return p, env, set, nil
}

// Build materializes the environment and the rule set.
func (p *Program) Build() (*tctx.Env, *rules.Set, error) {
	env := tctx.NewEnv()
	for _, d := range p.Decls {
		if err := env.Add(d); err != nil {
			return nil, nil, err
		}
	}
	set, err := rules.NewSet(p.Rules...)
	if err != nil {
		return nil, nil, err
	}
	return env, set, nil
}

// parseDecls extracts declarations in source order.
func parseDecls(v cue.Value, pos map[string]token.Pos) ([]tctx.Decl, error) {
	declsVal := v.LookupPath(cue.ParsePath("decls"))
	if !declsVal.Exists() {
		return nil, nil // decls are optional
	}

	iter, err := declsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []tctx.Decl
	for iter.Next() {
		name := iter.Label()
		field := "decls." + name
		dv := iter.Value()
		pos[field] = dv.Pos()

		typ, err := parseExprField(dv, field, "type", true)
		if err != nil {
			return nil, err
		}
		value, err := parseExprField(dv, field, "value", false)
		if err != nil {
			return nil, err
		}
		decls = append(decls, tctx.Decl{Name: name, Type: typ, Value: value})
	}
	return decls, nil
}

// parseRules extracts rules in source order.
func parseRules(v cue.Value, pos map[string]token.Pos) ([]rules.Rule, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, nil // rules are optional
	}

	iter, err := rulesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []rules.Rule
	for iter.Next() {
		name := iter.Label()
		field := "rules." + name
		rv := iter.Value()
		pos[field] = rv.Pos()

		r := rules.Rule{Name: name}
		if r.LHS, err = parseExprField(rv, field, "lhs", true); err != nil {
			return nil, err
		}
		if r.RHS, err = parseExprField(rv, field, "rhs", true); err != nil {
			return nil, err
		}

		if hv := rv.LookupPath(cue.ParsePath("hyps")); hv.Exists() {
			hyps, err := hv.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for i := 0; hyps.Next(); i++ {
				h, err := parseExpr(hyps.Value(), fmt.Sprintf("%s.hyps[%d]", field, i))
				if err != nil {
					return nil, err
				}
				r.Hyps = append(r.Hyps, h)
			}
		}

		if pv := rv.LookupPath(cue.ParsePath("priority")); pv.Exists() {
			prio, err := pv.Int64()
			if err != nil {
				return nil, &CompileError{
					Field:   field + ".priority",
					Message: "priority must be an integer",
					Pos:     pv.Pos(),
				}
			}
			r.Priority = int(prio)
		}
		out = append(out, r)
	}
	return out, nil
}

func parseExprField(v cue.Value, field, name string, required bool) (expr.Expr, error) {
	fv := v.LookupPath(cue.ParsePath(name))
	if !fv.Exists() {
		if !required {
			return nil, nil
		}
		return nil, &CompileError{
			Field:   field + "." + name,
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	return parseExpr(fv, field+"."+name)
}

func parseExpr(v cue.Value, field string) (expr.Expr, error) {
	src, err := v.String()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be an expression string",
			Pos:     v.Pos(),
		}
	}
	e, err := expr.Parse(src)
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return e, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
