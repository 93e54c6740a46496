package token

import "strconv"

// Kind identifies the lexical class of a [Token].
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	Error
	Illegal
	Whitespace
	Comment

	literalBegin
	Identifier
	Integer
	Float
	Boolean
	Null
	Path
	HPath
	SPath
	URI
	literalEnd

	structuralBegin
	StringStart
	StringContent
	StringEnd
	IndentedStringStart
	IndentedStringContent
	IndentedStringEnd
	InterpolationStart
	InterpolationEnd
	EscapeSequence
	structuralEnd

	keywordBegin
	If
	Then
	Else
	Assert
	With
	Let
	In
	Rec
	Inherit
	Or
	keywordEnd

	operatorBegin
	Dot
	Ellipsis
	Question
	At
	Colon
	Semicolon
	Comma
	Assign
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Plus
	Minus
	Star
	Slash
	Concat
	Update
	Not
	Equal
	NotEqual
	Less
	Greater
	LessEqual
	GreaterEqual
	And
	OrOr
	Implies
	operatorEnd

	numKinds
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "eof",
	Error:      "error",
	Illegal:    "illegal",
	Whitespace: "whitespace",
	Comment:    "comment",

	Identifier: "identifier",
	Integer:    "integer",
	Float:      "float",
	Boolean:    "boolean",
	Null:       "null",
	Path:       "path",
	HPath:      "hpath",
	SPath:      "spath",
	URI:        "uri",

	StringStart:           "string_start",
	StringContent:         "string_content",
	StringEnd:             "string_end",
	IndentedStringStart:   "indented_string_start",
	IndentedStringContent: "indented_string_content",
	IndentedStringEnd:     "indented_string_end",
	InterpolationStart:    "interpolation_start",
	InterpolationEnd:      "interpolation_end",
	EscapeSequence:        "escape_sequence",

	If:      "if",
	Then:    "then",
	Else:    "else",
	Assert:  "assert",
	With:    "with",
	Let:     "let",
	In:      "in",
	Rec:     "rec",
	Inherit: "inherit",
	Or:      "or",

	Dot:          ".",
	Ellipsis:     "...",
	Question:     "?",
	At:           "@",
	Colon:        ":",
	Semicolon:    ";",
	Comma:        ",",
	Assign:       "=",
	LParen:       "(",
	RParen:       ")",
	LBracket:     "[",
	RBracket:     "]",
	LBrace:       "{",
	RBrace:       "}",
	Plus:         "+",
	Minus:        "-",
	Star:         "*",
	Slash:        "/",
	Concat:       "++",
	Update:       "//",
	Not:          "!",
	Equal:        "==",
	NotEqual:     "!=",
	Less:         "<",
	Greater:      ">",
	LessEqual:    "<=",
	GreaterEqual: ">=",
	And:          "&&",
	OrOr:         "||",
	Implies:      "->",
}

// String returns the operator text for operators and keywords, and a
// snake_case name for every other kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}

	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func (k Kind) IsLiteral() bool    { return k > literalBegin && k < literalEnd }
func (k Kind) IsStructural() bool { return k > structuralBegin && k < structuralEnd }
func (k Kind) IsKeyword() bool    { return k > keywordBegin && k < keywordEnd }
func (k Kind) IsOperator() bool   { return k > operatorBegin && k < operatorEnd }

// IsTrivia reports whether tokens of kind k are kept out of the syntax tree.
func (k Kind) IsTrivia() bool { return k == Whitespace || k == Comment }

// keywords maps reserved words to their kinds. The literals true, false and
// null are included so the lexer resolves them in one lookup.
var keywords = map[string]Kind{
	"if":      If,
	"then":    Then,
	"else":    Else,
	"assert":  Assert,
	"with":    With,
	"let":     Let,
	"in":      In,
	"rec":     Rec,
	"inherit": Inherit,
	"or":      Or,
	"true":    Boolean,
	"false":   Boolean,
	"null":    Null,
}

// Lookup returns the keyword kind of ident, or [Identifier].
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}

	return Identifier
}
