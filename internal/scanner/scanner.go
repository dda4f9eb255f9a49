// Package scanner turns an input line into tokens.
package scanner

import (
	"strings"
	"unicode"

	"github.com/marcelocantos/crsh/internal/token"
)

// Reserved characters end a bareword. Only the operators and quotes among
// them have a meaning of their own; the rest cannot start a word.
const Reserved = "$'\"\\#=[]!><|;{}()*?~&"

// Scanner holds the state of a single left-to-right scan.
type Scanner struct {
	src    []rune
	curr   int
	tokens []token.Token
}

// New returns a Scanner over line.
func New(line string) *Scanner {
	return &Scanner{src: []rune(line)}
}

// Scan tokenizes line. The result always ends with exactly one EOF token.
func Scan(line string) ([]token.Token, error) {
	return New(line).ScanTokens()
}

// ScanTokens consumes the whole input.
func (s *Scanner) ScanTokens() ([]token.Token, error) {
	for !s.atEnd() {
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, token.New(token.EOF, s.curr))
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	start := s.curr
	c, err := s.advance()
	if err != nil {
		return err
	}

	switch {
	case unicode.IsSpace(c):
		return nil
	case c == '|':
		s.emit(token.New(token.Pipe, start))
	case c == '<':
		s.emit(token.New(token.RedirectIn, start))
	case c == ';':
		s.emit(token.New(token.Separator, start))
	case c == '>':
		if s.match('>') {
			s.emit(token.New(token.RedirectAppend, start))
		} else {
			s.emit(token.New(token.RedirectOut, start))
		}
	case c == '"' || c == '\'':
		return s.quoted(c, start)
	default:
		s.curr = start
		return s.word(start)
	}
	return nil
}

// quoted copies runes verbatim up to the closing quote. A missing closing
// quote ends the region at end of input.
func (s *Scanner) quoted(quote rune, start int) error {
	var sb strings.Builder
	for !s.atEnd() {
		c, err := s.advance()
		if err != nil {
			return err
		}
		if c == quote {
			break
		}
		sb.WriteRune(c)
	}
	s.emit(token.NewWord(sb.String(), start))
	return nil
}

func (s *Scanner) word(start int) error {
	var sb strings.Builder
	for !s.atEnd() {
		c, err := s.peek()
		if err != nil {
			return err
		}
		if unicode.IsSpace(c) || IsReserved(c) {
			break
		}
		s.curr++
		sb.WriteRune(c)
	}
	if sb.Len() == 0 {
		c, err := s.peek()
		if err != nil {
			return err
		}
		return &ScanError{Kind: EmptyToken, Pos: start, Char: c}
	}
	s.emit(token.NewWord(sb.String(), start))
	return nil
}

// IsReserved reports whether c terminates a bareword.
func IsReserved(c rune) bool {
	return strings.ContainsRune(Reserved, c)
}

func (s *Scanner) emit(t token.Token) {
	s.tokens = append(s.tokens, t)
}

func (s *Scanner) match(want rune) bool {
	if s.atEnd() || s.src[s.curr] != want {
		return false
	}
	s.curr++
	return true
}

func (s *Scanner) peek() (rune, error) {
	if s.atEnd() {
		return 0, &ScanError{Kind: IndexOutOfBounds, Pos: s.curr}
	}
	return s.src[s.curr], nil
}

func (s *Scanner) advance() (rune, error) {
	c, err := s.peek()
	if err != nil {
		return 0, err
	}
	s.curr++
	return c, nil
}

func (s *Scanner) atEnd() bool {
	return s.curr >= len(s.src)
}
