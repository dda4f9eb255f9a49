package token

import "fmt"

// Kind classifies a lexical token.
type Kind int

const (
	Word           Kind = iota // bareword or de-quoted string
	Pipe                       // |
	RedirectIn                 // <
	RedirectOut                // >
	RedirectAppend             // >>
	Separator                  // ;
	EOF                        // end of input, always last
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Pipe:
		return "|"
	case RedirectIn:
		return "<"
	case RedirectOut:
		return ">"
	case RedirectAppend:
		return ">>"
	case Separator:
		return ";"
	case EOF:
		return "end of input"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is one lexical unit of an input line.
type Token struct {
	Kind Kind
	Text string // set for Word only
	Pos  int    // rune offset of the first character
}

// New returns an operator token of the given kind.
func New(kind Kind, pos int) Token {
	return Token{Kind: kind, Pos: pos}
}

// NewWord returns a Word token carrying text.
func NewWord(text string, pos int) Token {
	return Token{Kind: Word, Text: text, Pos: pos}
}

func (t Token) String() string {
	if t.Kind == Word {
		return fmt.Sprintf("%q", t.Text)
	}
	return t.Kind.String()
}
