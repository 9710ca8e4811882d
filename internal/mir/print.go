package mir

import (
	"fmt"
	"io"
	"strings"

	"svir/internal/types"
)

// DumpLvalue writes an indented, human-readable tree of l.
func DumpLvalue(w io.Writer, l *Lvalue, typesIn *types.Interner) error {
	var sb strings.Builder
	dumpLvalue(&sb, l, typesIn, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

// DumpRvalue writes an indented, human-readable tree of r.
func DumpRvalue(w io.Writer, r *Rvalue, typesIn *types.Interner) error {
	var sb strings.Builder
	dumpRvalue(&sb, r, typesIn, 0, "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func typeStr(typesIn *types.Interner, id types.TypeID) string {
	if typesIn == nil {
		return fmt.Sprintf("type#%d", id)
	}
	return typesIn.Format(id)
}

func lvalueHead(l *Lvalue) string {
	switch l.Kind {
	case LvalueGenvar, LvalueVar, LvaluePort, LvalueIntf:
		return fmt.Sprintf("%s decl=%d", l.Kind, l.Decl)
	case LvalueIntfSignal:
		return fmt.Sprintf("%s member=%d", l.Kind, l.Member)
	case LvalueIndex:
		return fmt.Sprintf("%s len=%d", l.Kind, l.Length)
	case LvalueMember:
		return fmt.Sprintf("%s field=%d", l.Kind, l.Field)
	case LvalueRepeat:
		return fmt.Sprintf("%s x%d", l.Kind, l.Count)
	default:
		return l.Kind.String()
	}
}

func dumpLvalue(sb *strings.Builder, l *Lvalue, typesIn *types.Interner, depth int) {
	indent := strings.Repeat("  ", depth)
	if l == nil {
		fmt.Fprintf(sb, "%s<nil>\n", indent)
		return
	}
	fmt.Fprintf(sb, "%s%s : %s\n", indent, lvalueHead(l), typeStr(typesIn, l.Type))
	if l.Value != nil {
		dumpLvalue(sb, l.Value, typesIn, depth+1)
	}
	if l.Base != nil {
		dumpRvalue(sb, l.Base, typesIn, depth+1, "base ")
	}
	for _, p := range l.Parts {
		dumpLvalue(sb, p, typesIn, depth+1)
	}
}

func rvalueHead(r *Rvalue) string {
	switch r.Kind {
	case RvalueConst:
		return fmt.Sprintf("Const %d", r.Const)
	case RvalueGenvar, RvalueVar, RvaluePort, RvalueIntf:
		return fmt.Sprintf("%s decl=%d", r.Kind, r.Decl)
	case RvalueIntfSignal:
		return fmt.Sprintf("%s member=%d", r.Kind, r.Member)
	case RvalueBinary:
		return fmt.Sprintf("%s %s", r.Kind, r.BinaryOp)
	case RvalueUnary:
		return fmt.Sprintf("%s %s", r.Kind, r.UnaryOp)
	case RvalueIndex:
		return fmt.Sprintf("%s len=%d", r.Kind, r.Length)
	case RvalueMember:
		return fmt.Sprintf("%s field=%d", r.Kind, r.Field)
	case RvalueRepeat:
		return fmt.Sprintf("%s x%d", r.Kind, r.Count)
	default:
		return r.Kind.String()
	}
}

func dumpRvalue(sb *strings.Builder, r *Rvalue, typesIn *types.Interner, depth int, label string) {
	indent := strings.Repeat("  ", depth)
	if r == nil {
		fmt.Fprintf(sb, "%s%s<nil>\n", indent, label)
		return
	}
	fmt.Fprintf(sb, "%s%s%s : %s\n", indent, label, rvalueHead(r), typeStr(typesIn, r.Type))
	if r.Value != nil {
		dumpRvalue(sb, r.Value, typesIn, depth+1, "")
	}
	if r.Base != nil {
		dumpRvalue(sb, r.Base, typesIn, depth+1, "base ")
	}
	for _, a := range r.Args {
		dumpRvalue(sb, a, typesIn, depth+1, "")
	}
}
