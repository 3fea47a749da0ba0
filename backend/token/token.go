package token

import "fmt"

// Kind identifies the lexical class of a token
type Kind int

const (
	EOF Kind = iota
	IDENT
	INT

	// Keywords
	FN
	LET
	IF
	ELSE
	RETURN

	// Operators and punctuation
	ASSIGN
	PLUS
	MINUS
	STAR
	SLASH
	EQ
	LPAREN
	RPAREN
	LBRACE
	RBRACE
	SEMI
	COMMA
)

var kindNames = [...]string{
	EOF:    "EOF",
	IDENT:  "IDENT",
	INT:    "INT",
	FN:     "fn",
	LET:    "let",
	IF:     "if",
	ELSE:   "else",
	RETURN: "return",
	ASSIGN: "=",
	PLUS:   "+",
	MINUS:  "-",
	STAR:   "*",
	SLASH:  "/",
	EQ:     "==",
	LPAREN: "(",
	RPAREN: ")",
	LBRACE: "{",
	RBRACE: "}",
	SEMI:   ";",
	COMMA:  ",",
}

// String returns the source spelling of keywords and operators, and the
// class name of the other kinds
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"fn":     FN,
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"return": RETURN,
}

// Lookup maps an identifier to its keyword kind, or IDENT
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return IDENT
}

// Precedence returns the binding power of a binary operator.
// Zero means the kind is not a binary operator.
func (k Kind) Precedence() int {
	switch k {
	case EQ:
		return 1
	case PLUS, MINUS:
		return 2
	case STAR, SLASH:
		return 3
	}
	return 0
}

// Pos represents a position in source code
type Pos struct {
	File   string
	Line   int // 1-based
	Column int // 1-based, counted in runes
	Offset int // byte offset
}

// IsValid reports whether the position was set by the lexer
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	s := p.File
	if !p.IsValid() {
		if s == "" {
			return "-"
		}
		return s
	}
	if s != "" {
		s += ":"
	}
	return fmt.Sprintf("%s%d:%d", s, p.Line, p.Column)
}

// Token is a single lexeme produced by the lexer
type Token struct {
	Kind  Kind
	Text  string // source text of the token
	Value int32  // set for INT
	Pos   Pos
}

func (t Token) String() string {
	switch t.Kind {
	case IDENT:
		return fmt.Sprintf("IDENT(%s)", t.Text)
	case INT:
		return fmt.Sprintf("INT(%d)", t.Value)
	}
	return t.Kind.String()
}
