package parser

import (
	"fmt"

	"github.com/marcelocantos/crsh/internal/token"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	// NotExpectedToken is a grammar mismatch.
	NotExpectedToken ErrorKind = iota
	// TokensNotParsed means input was left over after the last pipeline.
	TokensNotParsed
	// IndexOutOfBounds means lookahead ran past the token slice.
	IndexOutOfBounds
)

func (k ErrorKind) String() string {
	switch k {
	case NotExpectedToken:
		return "unexpected token"
	case TokensNotParsed:
		return "tokens not parsed"
	case IndexOutOfBounds:
		return "index out of bounds"
	default:
		return fmt.Sprintf("parse error(%d)", int(k))
	}
}

// ParseError reports a grammar violation.
type ParseError struct {
	Kind  ErrorKind
	Token token.Token // offending token, zero for IndexOutOfBounds
	Msg   string
}

func (e *ParseError) Error() string {
	if e.Kind == IndexOutOfBounds {
		return fmt.Sprintf("parse: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("parse: %s %s at position %d: %s", e.Kind, e.Token, e.Token.Pos, e.Msg)
}
