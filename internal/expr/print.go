package expr

import (
	"fmt"
	"strings"
)

var openers = [...]string{Default: "(", Implicit: "{", StrictImplicit: "⦃", InstImplicit: "["}

// Print renders e in the syntax accepted by Parse. Shadowed binder names
// are renamed with a numeric suffix so the output parses back to an
// alpha-equivalent term.
func Print(e Expr) string {
	var pr printer
	pr.expr(e)
	return pr.sb.String()
}

type printer struct {
	sb    strings.Builder
	names []string
}

func (pr *printer) fresh(name string) string {
	if name == "" {
		name = "x"
	}
	candidate := name
	for i := 1; pr.inScope(candidate); i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	return candidate
}

func (pr *printer) inScope(name string) bool {
	for _, n := range pr.names {
		if n == name {
			return true
		}
	}
	return false
}

func (pr *printer) expr(e Expr) {
	switch n := e.(type) {
	case *BVar:
		if int(n.Idx) < len(pr.names) {
			pr.sb.WriteString(pr.names[len(pr.names)-1-int(n.Idx)])
		} else {
			fmt.Fprintf(&pr.sb, "#%d", n.Idx)
		}
	case *Local:
		if n.PrettyName != "" {
			pr.sb.WriteString(n.PrettyName)
		} else {
			pr.sb.WriteString(n.Name)
		}
	case *Meta:
		pr.sb.WriteString("?" + n.Name)
	case *Sort:
		switch n.Level {
		case 0:
			pr.sb.WriteString("Prop")
		case 1:
			pr.sb.WriteString("Type")
		default:
			fmt.Fprintf(&pr.sb, "(Sort %d)", n.Level)
		}
	case *Const:
		pr.sb.WriteString(n.Name)
	case *Macro:
		pr.sb.WriteString("(macro " + n.Tag)
		for _, a := range n.Args {
			pr.sb.WriteByte(' ')
			pr.expr(a)
		}
		pr.sb.WriteByte(')')
	case *Binding:
		pr.binding(n)
	case *Let:
		pr.let(n)
	case *App:
		pr.sb.WriteByte('(')
		pr.expr(n.Fn)
		for _, a := range n.Args {
			pr.sb.WriteByte(' ')
			pr.expr(a)
		}
		pr.sb.WriteByte(')')
	default:
		fmt.Fprintf(&pr.sb, "<%T>", e)
	}
}

func (pr *printer) binding(b *Binding) {
	depth := len(pr.names)
	defer func() { pr.names = pr.names[:depth] }()

	if b.Kind() == KindLambda {
		pr.sb.WriteString("(fun")
	} else {
		pr.sb.WriteString("(pi")
	}
	var body Expr = b
	for {
		bb, ok := body.(*Binding)
		if !ok || bb.Kind() != b.Kind() {
			break
		}
		name := pr.fresh(bb.Name)
		pr.sb.WriteString(" " + openers[bb.Info] + name + " : ")
		pr.expr(bb.Domain)
		pr.sb.WriteString(closers[openers[bb.Info]])
		pr.names = append(pr.names, name)
		body = bb.Body
	}
	pr.sb.WriteByte(' ')
	pr.expr(body)
	pr.sb.WriteByte(')')
}

func (pr *printer) let(l *Let) {
	depth := len(pr.names)
	defer func() { pr.names = pr.names[:depth] }()

	pr.sb.WriteString("(let")
	var body Expr = l
	for {
		ll, ok := body.(*Let)
		if !ok {
			break
		}
		name := pr.fresh(ll.Name)
		pr.sb.WriteString(" (" + name + " : ")
		pr.expr(ll.Type)
		pr.sb.WriteString(" := ")
		pr.expr(ll.Value)
		pr.sb.WriteByte(')')
		pr.names = append(pr.names, name)
		body = ll.Body
	}
	pr.sb.WriteByte(' ')
	pr.expr(body)
	pr.sb.WriteByte(')')
}
