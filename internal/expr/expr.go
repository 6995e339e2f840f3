package expr

import "fmt"

// Kind identifies the shape of an expression node.
type Kind uint8

const (
	KindBVar Kind = iota
	KindLocal
	KindMeta
	KindSort
	KindConst
	KindMacro
	KindLambda
	KindPi
	KindLet
	KindApp
)

var kindNames = [...]string{
	KindBVar:   "bvar",
	KindLocal:  "local",
	KindMeta:   "meta",
	KindSort:   "sort",
	KindConst:  "const",
	KindMacro:  "macro",
	KindLambda: "lambda",
	KindPi:     "pi",
	KindLet:    "let",
	KindApp:    "app",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// BinderInfo records how a binder's argument is supplied at use sites.
type BinderInfo uint8

const (
	// Default is an explicit argument.
	Default BinderInfo = iota
	// Implicit arguments are inferred by unification.
	Implicit
	// StrictImplicit arguments are inferred only when a later explicit
	// argument is supplied.
	StrictImplicit
	// InstImplicit arguments are resolved by instance search. The simplifier
	// canonicalizes them instead of rewriting them.
	InstImplicit
)

func (b BinderInfo) String() string {
	switch b {
	case Default:
		return "default"
	case Implicit:
		return "implicit"
	case StrictImplicit:
		return "strict_implicit"
	case InstImplicit:
		return "inst_implicit"
	}
	return fmt.Sprintf("binder_info(%d)", uint8(b))
}

// Expr is a sealed interface implemented by the node types of this package.
//
// Nodes must be built with the Mk* constructors; a node literal skips the
// cached hash and bound-variable range and will compare incorrectly.
type Expr interface {
	Kind() Kind
	// Hash is the structural hash. Equal expressions have equal hashes.
	Hash() uint64
	// LooseBVarRange is one more than the largest loose de Bruijn index in
	// the expression, or 0 when the expression is closed.
	LooseBVarRange() uint32
	// Size is the number of nodes in the tree.
	Size() int
	String() string

	hdr() *header
}

type header struct {
	hash uint64
	lbr  uint32
	size int
}

func (h *header) Hash() uint64           { return h.hash }
func (h *header) LooseBVarRange() uint32 { return h.lbr }
func (h *header) Size() int              { return h.size }
func (h *header) hdr() *header           { return h }

// BVar is a de Bruijn index into an enclosing binder chain.
type BVar struct {
	header
	Idx uint32
}

// Local is a free variable in locally-nameless form. Name is unique; two
// locals are the same variable exactly when their names match.
type Local struct {
	header
	Name       string
	PrettyName string
	Type       Expr
	Info       BinderInfo
	// Value is set for locals introduced by a let binder.
	Value Expr
}

// Meta is a metavariable. Rule patterns use metas as pattern variables.
type Meta struct {
	header
	Name string
	Type Expr // may be nil
}

type Sort struct {
	header
	Level uint32
}

type Const struct {
	header
	Name string
}

// Macro is an opaque tagged node over an ordered list of children.
type Macro struct {
	header
	Tag  string
	Args []Expr
}

// Binding is a single lambda or pi binder. Chains of binders are nested
// Bindings of the same kind.
type Binding struct {
	header
	kind   Kind
	Name   string
	Domain Expr
	Body   Expr
	Info   BinderInfo
}

type Let struct {
	header
	Name  string
	Type  Expr
	Value Expr
	Body  Expr
}

// App applies Fn to Args. Fn is never itself an App.
type App struct {
	header
	Fn   Expr
	Args []Expr
}

func (*BVar) Kind() Kind      { return KindBVar }
func (*Local) Kind() Kind     { return KindLocal }
func (*Meta) Kind() Kind      { return KindMeta }
func (*Sort) Kind() Kind      { return KindSort }
func (*Const) Kind() Kind     { return KindConst }
func (*Macro) Kind() Kind     { return KindMacro }
func (b *Binding) Kind() Kind { return b.kind }
func (*Let) Kind() Kind       { return KindLet }
func (*App) Kind() Kind       { return KindApp }

func (e *BVar) String() string    { return Print(e) }
func (e *Local) String() string   { return Print(e) }
func (e *Meta) String() string    { return Print(e) }
func (e *Sort) String() string    { return Print(e) }
func (e *Const) String() string   { return Print(e) }
func (e *Macro) String() string   { return Print(e) }
func (e *Binding) String() string { return Print(e) }
func (e *Let) String() string     { return Print(e) }
func (e *App) String() string     { return Print(e) }

func MkBVar(idx uint32) *BVar {
	e := &BVar{Idx: idx}
	e.hash = newHasher(KindBVar).u64(uint64(idx)).sum()
	e.lbr = idx + 1
	e.size = 1
	return e
}

// MkLocal creates a free variable. The caller is responsible for choosing a
// unique name; see tctx.NameGenerator.
func MkLocal(name, prettyName string, typ Expr, info BinderInfo) *Local {
	e := &Local{Name: name, PrettyName: prettyName, Type: typ, Info: info}
	e.hash = newHasher(KindLocal).str(name).sum()
	e.size = 1
	return e
}

// MkLetLocal creates a free variable standing for a let-bound value.
func MkLetLocal(name, prettyName string, typ, value Expr) *Local {
	e := MkLocal(name, prettyName, typ, Default)
	e.Value = value
	return e
}

func MkMeta(name string, typ Expr) *Meta {
	e := &Meta{Name: name, Type: typ}
	e.hash = newHasher(KindMeta).str(name).sum()
	e.size = 1
	return e
}

func MkSort(level uint32) *Sort {
	e := &Sort{Level: level}
	e.hash = newHasher(KindSort).u64(uint64(level)).sum()
	e.size = 1
	return e
}

// Prop is Sort 0.
func Prop() *Sort { return MkSort(0) }

// Type is Sort 1.
func Type() *Sort { return MkSort(1) }

func MkConst(name string) *Const {
	e := &Const{Name: name}
	e.hash = newHasher(KindConst).str(name).sum()
	e.size = 1
	return e
}

func MkMacro(tag string, args ...Expr) *Macro {
	e := &Macro{Tag: tag, Args: append([]Expr(nil), args...)}
	h := newHasher(KindMacro).str(tag).u64(uint64(len(args)))
	e.size = 1
	for _, a := range e.Args {
		h.sub(a)
		e.lbr = max(e.lbr, a.LooseBVarRange())
		e.size += a.Size()
	}
	e.hash = h.sum()
	return e
}

func MkLambda(name string, domain, body Expr, info BinderInfo) *Binding {
	return MkBinding(KindLambda, name, domain, body, info)
}

func MkPi(name string, domain, body Expr, info BinderInfo) *Binding {
	return MkBinding(KindPi, name, domain, body, info)
}

// MkBinding creates a lambda or pi binder. It panics on any other kind.
func MkBinding(kind Kind, name string, domain, body Expr, info BinderInfo) *Binding {
	if kind != KindLambda && kind != KindPi {
		panic(fmt.Sprintf("expr: MkBinding with kind %s", kind))
	}
	e := &Binding{kind: kind, Name: name, Domain: domain, Body: body, Info: info}
	e.hash = newHasher(kind).u64(uint64(info)).sub(domain).sub(body).sum()
	e.lbr = max(domain.LooseBVarRange(), under(body.LooseBVarRange()))
	e.size = 1 + domain.Size() + body.Size()
	return e
}

func MkLet(name string, typ, value, body Expr) *Let {
	e := &Let{Name: name, Type: typ, Value: value, Body: body}
	e.hash = newHasher(KindLet).sub(typ).sub(value).sub(body).sum()
	e.lbr = max(typ.LooseBVarRange(), value.LooseBVarRange(), under(body.LooseBVarRange()))
	e.size = 1 + typ.Size() + value.Size() + body.Size()
	return e
}

// MkApp applies fn to args. Applying an App extends its argument list, and
// applying to no arguments returns fn itself.
func MkApp(fn Expr, args ...Expr) Expr {
	if len(args) == 0 {
		return fn
	}
	var all []Expr
	if inner, ok := fn.(*App); ok {
		fn = inner.Fn
		all = make([]Expr, 0, len(inner.Args)+len(args))
		all = append(all, inner.Args...)
	} else {
		all = make([]Expr, 0, len(args))
	}
	all = append(all, args...)
	return newApp(fn, all)
}

// newApp builds an App that takes ownership of args.
func newApp(fn Expr, args []Expr) *App {
	e := &App{Fn: fn, Args: args}
	h := newHasher(KindApp).u64(uint64(len(args))).sub(fn)
	e.lbr = fn.LooseBVarRange()
	e.size = 1 + fn.Size()
	for _, a := range args {
		h.sub(a)
		e.lbr = max(e.lbr, a.LooseBVarRange())
		e.size += a.Size()
	}
	e.hash = h.sum()
	return e
}

// under converts a range measured inside one binder to the range outside it.
func under(r uint32) uint32 {
	if r == 0 {
		return 0
	}
	return r - 1
}

// GetAppFn returns the head of an application, or e itself.
func GetAppFn(e Expr) Expr {
	if app, ok := e.(*App); ok {
		return app.Fn
	}
	return e
}

// GetAppArgs splits e into its head and a fresh copy of its arguments.
func GetAppArgs(e Expr) (Expr, []Expr) {
	if app, ok := e.(*App); ok {
		return app.Fn, append([]Expr(nil), app.Args...)
	}
	return e, nil
}

// HasLooseBVars reports whether e has any loose bound variable.
func HasLooseBVars(e Expr) bool {
	return e.LooseBVarRange() > 0
}

// IsBinding reports whether e is a lambda or pi.
func IsBinding(e Expr) bool {
	k := e.Kind()
	return k == KindLambda || k == KindPi
}

// HeadSymbol returns the name of the constant or local at the head of e.
func HeadSymbol(e Expr) (string, bool) {
	switch fn := GetAppFn(e).(type) {
	case *Const:
		return "c:" + fn.Name, true
	case *Local:
		return "l:" + fn.Name, true
	}
	return "", false
}
