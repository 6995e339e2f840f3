package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseError reports a syntax error at a byte offset of the source.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Pos, e.Msg)
}

// Parse reads an expression in the s-expression syntax printed by Print:
//
//	c                        constant (or a binder name in scope)
//	?m                       metavariable
//	#3                       raw bound variable
//	Prop, Type, (Sort n)     sorts
//	(f a b)                  application
//	(fun (x y : A) [i : C] body)   also λ; {x : A} and ⦃x : A⦄ mark implicit binders
//	(pi (x : A) B)           also Π, forall, ∀
//	(let (x : T := v) body)
//	(macro tag a b)
func Parse(src string) (Expr, error) {
	return ParseWith(src)
}

// ParseWith is Parse with free locals resolvable by pretty name.
func ParseWith(src string, locals ...*Local) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, locals: make(map[string]*Local, len(locals))}
	for _, l := range locals {
		p.locals[l.PrettyName] = l
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, &ParseError{Pos: t.pos, Msg: fmt.Sprintf("unexpected %q after expression", t.text)}
	}
	return e, nil
}

// MustParse is like Parse but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParse(src string, locals ...*Local) Expr {
	e, err := ParseWith(src, locals...)
	if err != nil {
		panic(err)
	}
	return e
}

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokOpen
	tokClose
	tokColon
	tokAssign
	tokIdent
)

type token struct {
	kind tokKind
	text string
	pos  int
}

var closers = map[string]string{"(": ")", "[": "]", "{": "}", "⦃": "⦄"}

func isDelim(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '⦃', '⦄', ':':
		return true
	}
	return unicode.IsSpace(r)
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	offsets := make([]int, len(rs)+1)
	off := 0
	for i, r := range rs {
		offsets[i] = off
		off += len(string(r))
	}
	offsets[len(rs)] = off

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(' || r == '[' || r == '{' || r == '⦃':
			toks = append(toks, token{tokOpen, string(r), offsets[i]})
			i++
		case r == ')' || r == ']' || r == '}' || r == '⦄':
			toks = append(toks, token{tokClose, string(r), offsets[i]})
			i++
		case r == ':':
			if i+1 < len(rs) && rs[i+1] == '=' {
				toks = append(toks, token{tokAssign, ":=", offsets[i]})
				i += 2
			} else {
				toks = append(toks, token{tokColon, ":", offsets[i]})
				i++
			}
		default:
			start := i
			for i < len(rs) && !isDelim(rs[i]) {
				i++
			}
			toks = append(toks, token{tokIdent, string(rs[start:i]), offsets[start]})
		}
	}
	return append(toks, token{tokEOF, "", off}), nil
}

type parser struct {
	toks   []token
	i      int
	bound  []string
	locals map[string]*Local
}

func (p *parser) peek() token { return p.toks[p.i] }
func (p *parser) peekAt(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokKind, text string) error {
	t := p.next()
	if t.kind != kind || (text != "" && t.text != text) {
		want := text
		if want == "" {
			want = "identifier"
		}
		return p.errorf(t, "expected %q, found %q", want, t.text)
	}
	return nil
}

func (p *parser) expr() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		return p.atom(t)
	case tokOpen:
		if t.text != "(" {
			return nil, p.errorf(t, "unexpected %q", t.text)
		}
		e, err := p.form(t)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokClose, ")"); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, p.errorf(t, "unexpected end of input")
	}
	return nil, p.errorf(t, "unexpected %q", t.text)
}

func (p *parser) atom(t token) (Expr, error) {
	name := t.text
	switch {
	case strings.HasPrefix(name, "?"):
		if len(name) == 1 {
			return nil, p.errorf(t, "empty metavariable name")
		}
		return MkMeta(name[1:], nil), nil
	case strings.HasPrefix(name, "#"):
		idx, err := strconv.ParseUint(name[1:], 10, 32)
		if err != nil {
			return nil, p.errorf(t, "bad bound variable %q", name)
		}
		return MkBVar(uint32(idx)), nil
	}
	for i := len(p.bound) - 1; i >= 0; i-- {
		if p.bound[i] == name {
			return MkBVar(uint32(len(p.bound) - 1 - i)), nil
		}
	}
	if l, ok := p.locals[name]; ok {
		return l, nil
	}
	switch name {
	case "Prop":
		return Prop(), nil
	case "Type":
		return Type(), nil
	}
	return MkConst(name), nil
}

func (p *parser) form(open token) (Expr, error) {
	head := p.peek()
	if head.kind == tokIdent {
		switch head.text {
		case "fun", "λ", "lambda":
			p.next()
			return p.binding(KindLambda)
		case "pi", "Π", "forall", "∀":
			p.next()
			return p.binding(KindPi)
		case "let":
			p.next()
			return p.let()
		case "Sort":
			p.next()
			lt := p.next()
			lvl, err := strconv.ParseUint(lt.text, 10, 32)
			if lt.kind != tokIdent || err != nil {
				return nil, p.errorf(lt, "bad universe level %q", lt.text)
			}
			return MkSort(uint32(lvl)), nil
		case "macro":
			p.next()
			tag := p.next()
			if tag.kind != tokIdent {
				return nil, p.errorf(tag, "expected macro tag, found %q", tag.text)
			}
			args, err := p.exprsUntilClose()
			if err != nil {
				return nil, err
			}
			return MkMacro(tag.text, args...), nil
		}
	}
	fn, err := p.expr()
	if err != nil {
		return nil, err
	}
	args, err := p.exprsUntilClose()
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, p.errorf(open, "application without arguments")
	}
	return MkApp(fn, args...), nil
}

func (p *parser) exprsUntilClose() ([]Expr, error) {
	var out []Expr
	for p.peek().kind != tokClose {
		if p.peek().kind == tokEOF {
			return nil, p.errorf(p.peek(), "unexpected end of input")
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// atBinder reports whether the upcoming tokens open a binder group.
func (p *parser) atBinder() bool {
	t := p.peek()
	if t.kind != tokOpen {
		return false
	}
	if t.text != "(" {
		return true
	}
	n := 1
	for p.peekAt(n).kind == tokIdent {
		n++
	}
	return n > 1 && p.peekAt(n).kind == tokColon
}

type binderGroup struct {
	names  []string
	domain Expr
	info   BinderInfo
}

func (p *parser) binding(kind Kind) (Expr, error) {
	var groups []binderGroup
	pushed := 0
	defer func() { p.bound = p.bound[:len(p.bound)-pushed] }()

	for p.atBinder() {
		open := p.next()
		var g binderGroup
		switch open.text {
		case "{":
			g.info = Implicit
		case "⦃":
			g.info = StrictImplicit
		case "[":
			g.info = InstImplicit
		}
		for p.peek().kind == tokIdent {
			g.names = append(g.names, p.next().text)
		}
		if len(g.names) == 0 {
			return nil, p.errorf(p.peek(), "binder without a name")
		}
		if err := p.expect(tokColon, ":"); err != nil {
			return nil, err
		}
		// All names of a group share the domain, elaborated once in the
		// scope before the group; each later copy is lifted past the
		// names bound before it.
		dom, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokClose, closers[open.text]); err != nil {
			return nil, err
		}
		g.domain = dom
		groups = append(groups, g)
		p.bound = append(p.bound, g.names...)
		pushed += len(g.names)
	}
	if len(groups) == 0 {
		return nil, p.errorf(p.peek(), "expected binder")
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	for gi := len(groups) - 1; gi >= 0; gi-- {
		g := groups[gi]
		for ni := len(g.names) - 1; ni >= 0; ni-- {
			body = MkBinding(kind, g.names[ni], LiftLooseBVars(g.domain, 0, uint32(ni)), body, g.info)
		}
	}
	return body, nil
}

func (p *parser) let() (Expr, error) {
	type letGroup struct {
		name       string
		typ, value Expr
	}
	var groups []letGroup
	pushed := 0
	defer func() { p.bound = p.bound[:len(p.bound)-pushed] }()

	for p.atBinder() {
		open := p.next()
		if open.text != "(" {
			return nil, p.errorf(open, "let binder must use parentheses")
		}
		nt := p.next()
		if nt.kind != tokIdent {
			return nil, p.errorf(nt, "expected let name, found %q", nt.text)
		}
		if err := p.expect(tokColon, ":"); err != nil {
			return nil, err
		}
		typ, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokAssign, ":="); err != nil {
			return nil, err
		}
		val, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokClose, ")"); err != nil {
			return nil, err
		}
		groups = append(groups, letGroup{nt.text, typ, val})
		p.bound = append(p.bound, nt.text)
		pushed++
	}
	if len(groups) == 0 {
		return nil, p.errorf(p.peek(), "expected let binder")
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	for i := len(groups) - 1; i >= 0; i-- {
		body = MkLet(groups[i].name, groups[i].typ, groups[i].value, body)
	}
	return body, nil
}
