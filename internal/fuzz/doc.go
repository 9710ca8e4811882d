// Package fuzztests houses Go fuzz harnesses for the front half of the
// lowering pipeline: snippet lexer, expression and type parser, and the
// design description loader. They guard against panics, hangs and broken
// span invariants on arbitrary input.
//
// Назначение: прогонять произвольные байты через лексер, парсер и сборку
// дизайна.
//
// Не делает: генерацию корпусов и запуск CLI.
package fuzztests
