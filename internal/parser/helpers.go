package parser

import (
	"svir/internal/diag"
	"svir/internal/source"
	"svir/internal/token"
)

// advance — съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF && tok.Kind != token.Invalid {
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan — на EOF указываем на позицию сразу после последнего токена
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect — ожидаем конкретный токен. Если нет — репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diagSpan, msg, nil)
	return token.Token{Kind: token.Invalid, Span: diagSpan}, false
}

// expectClose ожидает закрывающую скобку и указывает на открывающую в заметке.
func (p *Parser) expectClose(k token.Kind, open token.Token) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	msg := "expected '" + k.String() + "', found " + p.describe(p.lx.Peek())
	p.report(diag.SynUnclosedDelimiter, diagSpan, msg, []diag.Note{{Span: open.Span, Msg: "opened here"}})
	return token.Token{Kind: token.Invalid, Span: diagSpan}, false
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, p.getDiagnosticSpan(), msg, nil)
}

func (p *Parser) report(code diag.Code, sp source.Span, msg string, notes []diag.Note) bool {
	p.opts.CurrentErrors++
	if p.opts.Reporter == nil || p.opts.MaxErrors != 0 && p.opts.CurrentErrors > p.opts.MaxErrors {
		return false
	}
	p.opts.Reporter.Report(code, diag.SevError, sp, msg, notes)
	return true
}

// fail помечает ошибку, о которой уже сообщил лексер (Invalid токен).
func (p *Parser) fail() {
	p.advance()
	p.opts.CurrentErrors++
}

func (p *Parser) describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.Ident, token.Number:
		return tok.Kind.String() + " '" + tok.Text + "'"
	default:
		return "'" + tok.Text + "'"
	}
}

func (p *Parser) text(sp source.Span) string {
	return string(p.file.Content[sp.Start:sp.End])
}
