package script

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// scriptLexer tokenises the JavaScript subset emitted by the block
// generators. Order matters: longer operators must precede their prefixes.
var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "Number", Pattern: `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{Name: "String", Pattern: `"(\\.|[^"\\\n])*"|'(\\.|[^'\\\n])*'`},
	{Name: "Ident", Pattern: `[\p{L}_$][\p{L}\p{N}_$]*`},
	{Name: "Operator", Pattern: `===|!==|==|!=|<=|>=|&&|\|\||[-+*/%<>!=]`},
	{Name: "Punct", Pattern: `[(){};,.]`},
})

// Token is a lexed token flattened for display.
type Token struct {
	Type   string
	Value  string
	Line   int
	Column int
	EOF    bool
}

// DebugLexer streams tokens one at a time, comments and whitespace included.
type DebugLexer struct {
	lex   lexer.Lexer
	names map[lexer.TokenType]string
}

func NewLexerForDebug(src, filename string) (*DebugLexer, error) {
	lex, err := scriptLexer.LexString(filename, src)
	if err != nil {
		return nil, err
	}
	return &DebugLexer{lex: lex, names: lexer.SymbolsByRune(scriptLexer)}, nil
}

func (l *DebugLexer) NextToken() (Token, error) {
	t, err := l.lex.Next()
	if err != nil {
		return Token{}, syntaxErrorFrom(err)
	}
	return Token{
		Type:   l.names[t.Type],
		Value:  t.Value,
		Line:   t.Pos.Line,
		Column: t.Pos.Column,
		EOF:    t.EOF(),
	}, nil
}

// Tokens lexes src completely, skipping whitespace and comments.
func Tokens(src, filename string) ([]Token, error) {
	l, err := NewLexerForDebug(src, filename)
	if err != nil {
		return nil, err
	}
	var tokens []Token
	for {
		t, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		if t.EOF {
			return tokens, nil
		}
		if t.Type == "Whitespace" || t.Type == "Comment" {
			continue
		}
		tokens = append(tokens, t)
	}
}
