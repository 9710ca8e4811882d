package token

var keywords = map[string]Kind{
	"bit":      KwBit,
	"logic":    KwLogic,
	"reg":      KwReg,
	"byte":     KwByte,
	"shortint": KwShortint,
	"int":      KwInt,
	"longint":  KwLongint,
	"integer":  KwInteger,
	"time":     KwTime,
	"signed":   KwSigned,
	"unsigned": KwUnsigned,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые — только lowercase версии распознаются.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
