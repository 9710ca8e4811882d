package parser

import (
	"fmt"

	"fortio.org/safecast"

	"svir/internal/diag"
	"svir/internal/source"
	"svir/internal/token"
	"svir/internal/types"
)

type dimSpec struct {
	left, right int32
	size        uint32 // `[n]`, only for unpacked
	span        source.Span
}

// parseType разбирает `<base> [signed|unsigned] {[l:r]} [$ {[l:r] | [n]}]`.
// Первое записанное измерение — самое внешнее, как в types.Format.
func (p *Parser) parseType() (types.TypeID, bool) {
	b := p.types.Builtins()
	tok := p.lx.Peek()

	var base types.TypeID
	named := false
	switch tok.Kind {
	case token.KwBit:
		base = b.Bit
	case token.KwLogic, token.KwReg:
		base = b.Logic
	case token.KwByte:
		base = b.Byte
	case token.KwShortint:
		base = b.Shortint
	case token.KwInt:
		base = b.Int
	case token.KwLongint:
		base = b.Longint
	case token.KwInteger:
		base = b.Integer
	case token.KwTime:
		base = b.Time
	case token.Ident:
		named = true
	case token.Invalid:
		p.fail()
		return b.Error, false
	default:
		p.err(diag.SynUnexpectedToken, "expected type, found "+p.describe(tok))
		return b.Error, false
	}
	p.advance()
	sp := tok.Span

	if named {
		var ok bool
		if base, sp, ok = p.parseNamedType(tok); !ok {
			return b.Error, false
		}
	}

	sign, hasSign := types.Unsigned, false
	if p.atOr(token.KwSigned, token.KwUnsigned) {
		st := p.advance()
		if named {
			p.report(diag.DesBadType, st.Span, fmt.Sprintf("`%s` cannot be %s", p.text(sp), st.Text), nil)
			return b.Error, false
		}
		hasSign = true
		if st.Kind == token.KwSigned {
			sign = types.Signed
		}
	}

	var packed []dimSpec
	for p.at(token.LBracket) {
		d, ok := p.parseDim(false)
		if !ok {
			return b.Error, false
		}
		packed = append(packed, d)
	}

	ty := base
	bt := p.types.MustLookup(base)
	switch {
	case len(packed) > 0:
		if bt.Kind != types.KindScalar {
			p.report(diag.DesBadType, packed[0].span,
				fmt.Sprintf("packed dimensions need a bit or logic element, not `%s`", p.types.Format(base)), nil)
			return b.Error, false
		}
		for i := len(packed) - 1; i >= 0; i-- {
			s := types.Unsigned
			if i == 0 {
				s = sign
			}
			ty = p.types.Packed(ty, packed[i].left, packed[i].right, s)
		}
	case hasSign && bt.Kind == types.KindScalar:
		ty = p.types.Intern(types.MakeScalar(bt.Domain, sign))
	case hasSign && bt.Kind == types.KindIntAtom:
		ty = p.types.Intern(types.MakeIntAtom(bt.Domain, sign, bt.Width))
	}

	if p.at(token.Dollar) {
		p.advance()
		var unpacked []dimSpec
		for p.at(token.LBracket) {
			d, ok := p.parseDim(true)
			if !ok {
				return b.Error, false
			}
			unpacked = append(unpacked, d)
		}
		if len(unpacked) == 0 {
			p.err(diag.SynUnexpectedToken, "expected unpacked dimension after '$', found "+p.describe(p.lx.Peek()))
			return b.Error, false
		}
		for i := len(unpacked) - 1; i >= 0; i-- {
			if d := unpacked[i]; d.size != 0 {
				ty = p.types.UnpackedSize(ty, d.size)
			} else {
				ty = p.types.Unpacked(ty, d.left, d.right)
			}
		}
	}
	return ty, true
}

// parseNamedType resolves `name` or `name.modport`.
func (p *Parser) parseNamedType(first token.Token) (types.TypeID, source.Span, bool) {
	name, modport := identName(first), ""
	sp := first.Span
	if p.at(token.Dot) {
		p.advance()
		mp, ok := p.expect(token.Ident, diag.SynUnexpectedToken, "expected modport name after '.', found "+p.describe(p.lx.Peek()))
		if !ok {
			return types.NoTypeID, sp, false
		}
		modport = identName(mp)
		sp = sp.Cover(mp.Span)
	}
	if p.names == nil {
		p.report(diag.DesUnknownType, sp, fmt.Sprintf("unknown type `%s`", p.text(sp)), nil)
		return types.NoTypeID, sp, false
	}
	ty, ok := p.names.ResolveType(name, modport)
	if !ok {
		p.report(diag.DesUnknownType, sp, fmt.Sprintf("unknown type `%s`", p.text(sp)), nil)
		return types.NoTypeID, sp, false
	}
	if p.types.IsError(ty) {
		// определение уже сломано и о нём сообщено
		p.opts.CurrentErrors++
		return types.NoTypeID, sp, false
	}
	return ty, sp, true
}

// parseDim разбирает `[l:r]`; для unpacked также `[n]`.
func (p *Parser) parseDim(allowSize bool) (dimSpec, bool) {
	open := p.advance() // [
	left, ok := p.parseBound()
	if !ok {
		return dimSpec{}, false
	}
	d := dimSpec{left: left}
	if allowSize && p.at(token.RBracket) {
		if left <= 0 {
			p.report(diag.DesBadType, p.lastSpan, fmt.Sprintf("array size must be positive, got %d", left), nil)
			return dimSpec{}, false
		}
		d.size = uint32(left) // #nosec G115 -- positive
	} else {
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in dimension, found "+p.describe(p.lx.Peek())); !ok {
			return dimSpec{}, false
		}
		if d.right, ok = p.parseBound(); !ok {
			return dimSpec{}, false
		}
	}
	closeTok, ok := p.expectClose(token.RBracket, open)
	if !ok {
		return dimSpec{}, false
	}
	d.span = open.Span.Cover(closeTok.Span)
	return d, true
}

// parseBound читает целую границу измерения, допускает ведущий минус.
func (p *Parser) parseBound() (int32, bool) {
	neg := false
	if p.at(token.Minus) {
		p.advance()
		neg = true
	}
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Number:
	case token.Invalid:
		p.fail()
		return 0, false
	default:
		p.err(diag.SynUnexpectedToken, "expected dimension bound, found "+p.describe(tok))
		return 0, false
	}
	p.advance()
	v, err := parseNumber(tok.Text)
	if err == nil && neg {
		v = -v
	}
	if err == nil {
		var n int32
		if n, err = safecast.Conv[int32](v); err == nil {
			return n, true
		}
	}
	p.report(diag.SynBadNumber, tok.Span, fmt.Sprintf("dimension bound %s is out of range", tok.Text), nil)
	return 0, false
}
