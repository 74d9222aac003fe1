package textir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// TextIRLexer tokenizes the textual IR surface syntax, following
// grammar.KansoLexer's stateful-regex-rules shape (one flat "Root"
// state, comments and whitespace elided by the parser rather than
// filtered here).
var TextIRLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `0x[0-9a-fA-F]+|[0-9]+`, nil},
		{"Punctuation", `[{}()%@:,=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
