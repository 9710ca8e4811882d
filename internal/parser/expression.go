package parser

import (
	"golang.org/x/text/unicode/norm"

	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/source"
	"svir/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений
func (p *Parser) parseExpr() (hir.NodeID, bool) {
	return p.parseBinaryExpr(0)
}

// parseBinaryExpr реализует Pratt parsing для бинарных операторов
func (p *Parser) parseBinaryExpr(minPrec int) (hir.NodeID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return hir.NoNodeID, false
	}
	for {
		prec := getBinaryOperatorPrec(p.lx.Peek().Kind)
		if prec < 0 || prec < minPrec {
			return left, true
		}
		opTok := p.advance()
		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return hir.NoNodeID, false
		}
		sp := p.spanOf(left).Cover(p.spanOf(right))
		left = p.store.AddExpr(hir.ExprBinary, hir.BinaryData{
			Op:  tokenKindToBinaryOp(opTok.Kind),
			LHS: left,
			RHS: right,
		}, p.text(sp), sp)
	}
}

// parseUnaryExpr обрабатывает унарные минус и плюс
func (p *Parser) parseUnaryExpr() (hir.NodeID, bool) {
	switch p.lx.Peek().Kind {
	case token.Minus:
		opTok := p.advance()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return hir.NoNodeID, false
		}
		sp := opTok.Span.Cover(p.spanOf(operand))
		return p.store.AddExpr(hir.ExprUnary, hir.UnaryData{Op: hir.UnaryNeg, Operand: operand}, p.text(sp), sp), true
	case token.Plus:
		p.advance()
		return p.parseUnaryExpr()
	default:
		return p.parsePostfixExpr()
	}
}

// parsePostfixExpr разбирает цепочку `[..]` и `.name` после primary.
func (p *Parser) parsePostfixExpr() (hir.NodeID, bool) {
	target, ok := p.parsePrimary()
	if !ok {
		return hir.NoNodeID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.LBracket:
			target, ok = p.parseIndex(target)
		case token.Dot:
			target, ok = p.parseField(target)
		default:
			return target, true
		}
		if !ok {
			return hir.NoNodeID, false
		}
	}
}

func (p *Parser) parseIndex(target hir.NodeID) (hir.NodeID, bool) {
	open := p.advance() // [
	a, ok := p.parseExpr()
	if !ok {
		return hir.NoNodeID, false
	}
	mode := hir.IndexMode{Kind: hir.IndexOne, A: a}
	switch p.lx.Peek().Kind {
	case token.Colon:
		mode.Kind = hir.IndexRange
	case token.PlusColon:
		mode.Kind = hir.IndexUp
	case token.MinusColon:
		mode.Kind = hir.IndexDown
	}
	if mode.Kind != hir.IndexOne {
		p.advance()
		if mode.B, ok = p.parseExpr(); !ok {
			return hir.NoNodeID, false
		}
	}
	closeTok, ok := p.expectClose(token.RBracket, open)
	if !ok {
		return hir.NoNodeID, false
	}
	sp := p.spanOf(target).Cover(closeTok.Span)
	return p.store.AddExpr(hir.ExprIndex, hir.IndexData{Target: target, Mode: mode}, p.text(sp), sp), true
}

func (p *Parser) parseField(target hir.NodeID) (hir.NodeID, bool) {
	p.advance() // .
	name, ok := p.expect(token.Ident, diag.SynUnexpectedToken, "expected member name after '.', found "+p.describe(p.lx.Peek()))
	if !ok {
		return hir.NoNodeID, false
	}
	sp := p.spanOf(target).Cover(name.Span)
	return p.store.AddExpr(hir.ExprField, hir.FieldData{Target: target, Name: identName(name)}, p.text(sp), sp), true
}

// parsePrimary: число, имя, `a::b`, вызов, конкатенация или скобки.
func (p *Parser) parsePrimary() (hir.NodeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		v, err := parseNumber(tok.Text)
		if err != nil {
			p.report(diag.SynBadNumber, tok.Span, err.Error(), nil)
			return hir.NoNodeID, false
		}
		return p.store.AddExpr(hir.ExprIntLit, hir.IntLitData{Value: v}, tok.Text, tok.Span), true
	case token.Ident:
		return p.parseName()
	case token.LBrace:
		return p.parseConcat()
	case token.LParen:
		open := p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return hir.NoNodeID, false
		}
		closeTok, ok := p.expectClose(token.RParen, open)
		if !ok {
			return hir.NoNodeID, false
		}
		if p.parens == nil {
			p.parens = make(map[hir.NodeID]source.Span)
		}
		p.parens[inner] = open.Span.Cover(closeTok.Span)
		return inner, true
	case token.Invalid:
		p.fail()
		return hir.NoNodeID, false
	default:
		p.err(diag.SynExpectExpression, "expected expression, found "+p.describe(tok))
		return hir.NoNodeID, false
	}
}

func (p *Parser) parseName() (hir.NodeID, bool) {
	first := p.advance()
	name := identName(first)
	switch p.lx.Peek().Kind {
	case token.ColonColon:
		p.advance()
		second, ok := p.expect(token.Ident, diag.SynUnexpectedToken, "expected name after '::', found "+p.describe(p.lx.Peek()))
		if !ok {
			return hir.NoNodeID, false
		}
		sp := first.Span.Cover(second.Span)
		return p.store.AddExpr(hir.ExprScope, hir.ScopeData{Scope: name, Name: identName(second)}, p.text(sp), sp), true
	case token.LParen:
		open := p.advance()
		var args []hir.NodeID
		for !p.at(token.RParen) {
			arg, ok := p.parseExpr()
			if !ok {
				return hir.NoNodeID, false
			}
			args = append(args, arg)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
		closeTok, ok := p.expectClose(token.RParen, open)
		if !ok {
			return hir.NoNodeID, false
		}
		sp := first.Span.Cover(closeTok.Span)
		return p.store.AddExpr(hir.ExprCall, hir.CallData{Callee: name, Args: args}, p.text(sp), sp), true
	default:
		return p.store.Ident(name, first.Span), true
	}
}

// parseConcat разбирает `{a, b}` и репликацию `{n{a, b}}`.
func (p *Parser) parseConcat() (hir.NodeID, bool) {
	open := p.advance() // {
	if p.at(token.RBrace) {
		p.err(diag.SynExpectExpression, "empty concatenation")
		return hir.NoNodeID, false
	}
	first, ok := p.parseExpr()
	if !ok {
		return hir.NoNodeID, false
	}

	data := hir.ConcatData{Repeat: hir.NoNodeID}
	if p.at(token.LBrace) {
		data.Repeat = first
		inner := p.advance()
		if p.at(token.RBrace) {
			p.err(diag.SynExpectExpression, "empty replication")
			return hir.NoNodeID, false
		}
		item, ok := p.parseExpr()
		if !ok {
			return hir.NoNodeID, false
		}
		if data.Parts, ok = p.parseExprTail(item); !ok {
			return hir.NoNodeID, false
		}
		if _, ok := p.expectClose(token.RBrace, inner); !ok {
			return hir.NoNodeID, false
		}
	} else if data.Parts, ok = p.parseExprTail(first); !ok {
		return hir.NoNodeID, false
	}

	closeTok, ok := p.expectClose(token.RBrace, open)
	if !ok {
		return hir.NoNodeID, false
	}
	sp := open.Span.Cover(closeTok.Span)
	return p.store.AddExpr(hir.ExprConcat, data, p.text(sp), sp), true
}

// parseExprTail продолжает список `head, b, c` через запятую.
func (p *Parser) parseExprTail(head hir.NodeID) ([]hir.NodeID, bool) {
	out := []hir.NodeID{head}
	for p.at(token.Comma) {
		p.advance()
		item, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		out = append(out, item)
	}
	return out, true
}

// spanOf включает скобки вокруг подвыражения, если они были.
func (p *Parser) spanOf(id hir.NodeID) source.Span {
	if sp, ok := p.parens[id]; ok {
		return sp
	}
	if n, ok := p.store.Node(id); ok {
		return n.Span()
	}
	return p.lastSpan
}

// identName возвращает имя в NFC, чтобы совпадать с объявлениями.
func identName(tok token.Token) string {
	return norm.NFC.String(tok.Text)
}
