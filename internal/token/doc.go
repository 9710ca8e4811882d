// Package token defines lexical token kinds for design expressions and type
// descriptions.
// Invariants:
//   - Token.Text is the exact source slice covered by Token.Span.
//   - Built-in type names (bit, logic, int, ...) and `signed`/`unsigned` are
//     keywords; struct and interface names are identifiers.
//   - Sized and based literals (8'hff, 'b1010) are a single Number token.
package token
