package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Синтаксис выражений в описании дизайна
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynUnclosedDelimiter Code = 2002
	SynExpectExpression  Code = 2003
	SynBadNumber         Code = 2004
	SynTrailingInput     Code = 2005

	// Семантические (резолв имён и членов)
	SemaInfo             Code = 3000
	SemaError            Code = 3001
	SemaUnresolvedName   Code = 3005
	SemaUnknownField     Code = 3010
	SemaUnknownMember    Code = 3011
	SemaNotIndexable     Code = 3012
	SemaNotConstant      Code = 3013
	SemaNoFieldsOnType   Code = 3014
	SemaConcatNotPacked  Code = 3015
	SemaNegativeRepeat   Code = 3016
	SemaUnknownParameter Code = 3017

	// Построение MIR
	MirInfo            Code = 4000
	MirNotAssignable   Code = 4001
	MirNotAssignTarget Code = 4002
	MirNoValue         Code = 4003

	// Описание дизайна и проект
	DesInfo          Code = 5000
	DesLoadError     Code = 5001
	DesSchemaVersion Code = 5002
	DesDuplicateDecl Code = 5003
	DesTypeCycle     Code = 5004
	DesUnknownType   Code = 5005
	DesBadType       Code = 5006

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		SynInfo:              "Syntax information",
		SynUnexpectedToken:   "Unexpected token",
		SynUnclosedDelimiter: "Unclosed delimiter",
		SynExpectExpression:  "Expected expression",
		SynBadNumber:         "Malformed number literal",
		SynTrailingInput:     "Unexpected input after expression",
		SemaInfo:             "Semantic information",
		SemaError:            "Semantic error",
		SemaUnresolvedName:   "Unresolved name",
		SemaUnknownField:     "Unknown struct member",
		SemaUnknownMember:    "Unknown interface member",
		SemaNotIndexable:     "Value cannot be indexed",
		SemaNotConstant:      "Expression is not a compile-time constant",
		SemaNoFieldsOnType:   "Type has no members",
		SemaConcatNotPacked:  "Concatenation operand is not packable",
		SemaNegativeRepeat:   "Replication count must be positive",
		SemaUnknownParameter: "Unknown parameter",
		MirInfo:              "MIR information",
		MirNotAssignable:     "Expression cannot be assigned to",
		MirNotAssignTarget:   "Declaration cannot be an assignment target",
		MirNoValue:           "Expression has no value",
		DesInfo:              "Design information",
		DesLoadError:         "Design description error",
		DesSchemaVersion:     "Unsupported design schema version",
		DesDuplicateDecl:     "Duplicate declaration",
		DesTypeCycle:         "Type definitions form a cycle",
		DesUnknownType:       "Unknown type name",
		DesBadType:           "Invalid type description",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MIR%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("DES%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
