package project

import "svir/internal/source"

// UseMeta is a reference from a type definition to another one by name.
type UseMeta struct {
	Name string
	Span source.Span
}

// DefMeta is a named type definition (struct or interface) with the user
// type names its members refer to.
type DefMeta struct {
	Name string
	Span source.Span
	Uses []UseMeta
}
