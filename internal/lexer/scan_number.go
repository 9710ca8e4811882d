package lexer

import (
	"svir/internal/diag"
	"svir/internal/token"
)

// Поддержка: 123, 1_000, 8'hff, 4'b10_10, 'd7, 16'sh8000.
// Размер и основание остаются в Token.Text; значение считает парсер.
// Неверные формы — репорт в opts.Reporter, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	if !lx.cursor.Eat('\'') {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
	}

	// основание: [sS]?[bBoOdDhH]
	if b := lx.cursor.Peek(); b == 's' || b == 'S' {
		lx.cursor.Bump()
	}
	var digit func(byte) bool
	switch lx.cursor.Bump() {
	case 'b', 'B':
		digit = func(b byte) bool { return b == '0' || b == '1' }
	case 'o', 'O':
		digit = func(b byte) bool { return b >= '0' && b <= '7' }
	case 'd', 'D':
		digit = isDec
	case 'h', 'H':
		digit = isHex
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.SynBadNumber, sp, "expected base specifier after '")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}

	digits := 0
	for {
		b := lx.cursor.Peek()
		switch {
		case digit(b):
			digits++
		case b == '_':
		case isIdentContinueByte(b):
			// x/z и чужие цифры: съедаем, чтобы ошибка покрыла весь литерал
			lx.cursor.Bump()
			for isIdentContinueByte(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.SynBadNumber, sp, "invalid digit in based literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		default:
			sp := lx.cursor.SpanFrom(start)
			if digits == 0 {
				lx.report(diag.SynBadNumber, sp, "based literal has no digits")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
			}
			return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
		}
		lx.cursor.Bump()
	}
}
