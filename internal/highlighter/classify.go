package highlighter

import chroma "github.com/alecthomas/chroma/v2"

func categorize(tt chroma.TokenType) TokenCategory {
	switch {
	case tt == chroma.Error:
		return TokenError
	case tt.InCategory(chroma.Comment):
		return TokenComment
	case tt == chroma.KeywordType, tt == chroma.NameClass, tt == chroma.NameBuiltin:
		return TokenType
	case tt.InCategory(chroma.Keyword):
		return TokenKeyword
	case tt == chroma.NameFunction, tt == chroma.NameFunctionMagic:
		return TokenFunction
	case tt.InSubCategory(chroma.LiteralString):
		return TokenString
	case tt.InSubCategory(chroma.LiteralNumber):
		return TokenNumber
	case tt.InCategory(chroma.Operator), tt.InCategory(chroma.Punctuation):
		return TokenOperator
	}
	return TokenPlain
}
