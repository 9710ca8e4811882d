package types

import (
	"fmt"
	"strings"

	"svir/internal/source"
)

// Format renders id the way it would be declared, e.g. `logic signed [7:0]`
// or `bit [3:0] $ [0:7]` for unpacked arrays.
func (in *Interner) Format(id TypeID) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<none>"
	}
	switch tt.Kind {
	case KindError:
		return "<error>"
	case KindUnpacked:
		var unpacked []Dim
		for {
			cur, ok := in.Lookup(id)
			if !ok || cur.Kind != KindUnpacked {
				break
			}
			unpacked = append(unpacked, Dim{Left: cur.Left, Right: cur.Right})
			id = cur.Elem
		}
		var sb strings.Builder
		sb.WriteString(in.Format(id))
		sb.WriteString(" $ ")
		for _, d := range unpacked {
			sb.WriteString(d.String())
		}
		return sb.String()
	case KindPacked:
		var packed []Dim
		sign := tt.Sign
		for {
			cur, ok := in.Lookup(id)
			if !ok || cur.Kind != KindPacked {
				break
			}
			packed = append(packed, Dim{Left: cur.Left, Right: cur.Right})
			id = cur.Elem
		}
		var sb strings.Builder
		sb.WriteString(in.Format(id))
		if sign == Signed {
			sb.WriteString(" signed")
		}
		sb.WriteByte(' ')
		for _, d := range packed {
			sb.WriteString(d.String())
		}
		return sb.String()
	case KindScalar:
		if tt.Sign == Signed {
			return tt.Domain.String() + " signed"
		}
		return tt.Domain.String()
	case KindIntAtom:
		return formatAtom(tt)
	case KindStruct:
		return in.formatStruct(id)
	case KindInterface:
		info, ok := in.Interface(id)
		if !ok {
			return "interface"
		}
		s := "interface " + in.name(info.Name)
		if mp, ok := in.Modport(id); ok {
			s += "." + in.name(mp)
		}
		return s
	default:
		return tt.Kind.String()
	}
}

func formatAtom(tt Type) string {
	switch {
	case tt.Domain == TwoValued && tt.Sign == Signed && tt.Width == 8:
		return "byte"
	case tt.Domain == TwoValued && tt.Sign == Signed && tt.Width == 16:
		return "shortint"
	case tt.Domain == TwoValued && tt.Sign == Signed && tt.Width == 32:
		return "int"
	case tt.Domain == TwoValued && tt.Sign == Signed && tt.Width == 64:
		return "longint"
	case tt.Domain == FourValued && tt.Sign == Signed && tt.Width == 32:
		return "integer"
	case tt.Domain == FourValued && tt.Sign == Unsigned && tt.Width == 64:
		return "time"
	}
	return fmt.Sprintf("%s %s atom%d", tt.Domain, tt.Sign, tt.Width)
}

func (in *Interner) formatStruct(id TypeID) string {
	info, ok := in.StructInfo(id)
	if !ok {
		return "struct"
	}
	prefix := "struct "
	if info.Packed {
		prefix = "struct packed "
	}
	if info.Name != source.NoStringID {
		return prefix + in.name(info.Name)
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('{')
	for i, m := range info.Members {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(in.name(m.Name))
		sb.WriteString(": ")
		sb.WriteString(in.Format(m.Type))
	}
	sb.WriteByte('}')
	return sb.String()
}

func (in *Interner) name(id source.StringID) string {
	if in.Strings == nil {
		return "?"
	}
	s, ok := in.Strings.Lookup(id)
	if !ok || s == "" {
		return "?"
	}
	return s
}
