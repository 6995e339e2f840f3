package compiler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ChrisHughes24/lean/internal/expr"
)

// Validation error codes (E100-E199)
const (
	// Declaration errors (E101-E109)
	ErrUndeclaredConstant = "E101" // constant not declared in decls
	ErrLooseBoundVar      = "E102" // raw #n index at top level
	ErrMetaInDecl         = "E103" // pattern variables only belong in rules

	// Rule errors (E110-E119)
	ErrBadRuleHead         = "E110" // lhs not headed by a constant
	ErrUnboundPatternVar   = "E111" // rhs/hyp variable missing from lhs
	ErrRuleHeadNotDeclared = "E112" // lhs head constant not declared
)

// ValidationError represents a semantic error in a compiled program.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program.
// Returns all errors found (does not fail-fast).
func Validate(p *Program) []ValidationError {
	declared := make(map[string]bool, len(p.Decls))
	for _, d := range p.Decls {
		declared[d.Name] = true
	}

	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    p.Pos(fieldRoot(field)).Line(),
		})
	}
	checkConsts := func(field string, e expr.Expr) {
		for _, c := range expr.Consts(e) {
			if !declared[c] {
				add(field, ErrUndeclaredConstant, "constant %s is not declared", c)
			}
		}
	}

	for _, d := range p.Decls {
		field := "decls." + d.Name
		for _, part := range []struct {
			name string
			e    expr.Expr
		}{{"type", d.Type}, {"value", d.Value}} {
			if part.e == nil {
				continue
			}
			f := field + "." + part.name
			checkConsts(f, part.e)
			if expr.HasLooseBVars(part.e) {
				add(f, ErrLooseBoundVar, "loose bound variable in %s", part.name)
			}
			if len(expr.Metas(part.e)) > 0 {
				add(f, ErrMetaInDecl, "pattern variables are not allowed in declarations")
			}
		}
	}

	for _, r := range p.Rules {
		field := "rules." + r.Name
		head, ok := expr.GetAppFn(r.LHS).(*expr.Const)
		switch {
		case !ok:
			add(field+".lhs", ErrBadRuleHead, "lhs must be headed by a constant, got %s", r.LHS)
		case !declared[head.Name]:
			add(field+".lhs", ErrRuleHeadNotDeclared, "head constant %s is not declared", head.Name)
		}

		parts := append([]expr.Expr{r.LHS, r.RHS}, r.Hyps...)
		for i, e := range parts {
			f := partField(field, i)
			checkConsts(f, e)
			if expr.HasLooseBVars(e) {
				add(f, ErrLooseBoundVar, "loose bound variable")
			}
		}

		vars := expr.Metas(r.LHS)
		for i, e := range parts[1:] {
			for _, m := range expr.Metas(e) {
				if !slices.Contains(vars, m) {
					add(partField(field, i+1), ErrUnboundPatternVar, "pattern variable ?%s does not occur in lhs", m)
				}
			}
		}
	}
	return errs
}

// partField names the i-th expression of a rule: lhs, rhs, hyps[n].
func partField(field string, i int) string {
	switch i {
	case 0:
		return field + ".lhs"
	case 1:
		return field + ".rhs"
	}
	return fmt.Sprintf("%s.hyps[%d]", field, i-2)
}

// fieldRoot trims "rules.r.lhs" to "rules.r".
func fieldRoot(field string) string {
	dots := 0
	for i, c := range field {
		if c == '.' {
			dots++
			if dots == 2 {
				return field[:i]
			}
		}
	}
	return field
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
