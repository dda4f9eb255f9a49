package scanner

import "fmt"

// ErrorKind classifies a ScanError.
type ErrorKind int

const (
	// IndexOutOfBounds means the scanner tried to read past the end of the line.
	IndexOutOfBounds ErrorKind = iota
	// EmptyToken means a word was started on a character that cannot begin one.
	EmptyToken
)

func (k ErrorKind) String() string {
	switch k {
	case IndexOutOfBounds:
		return "index out of bounds"
	case EmptyToken:
		return "empty token"
	default:
		return fmt.Sprintf("scan error(%d)", int(k))
	}
}

// ScanError reports a lexical failure.
type ScanError struct {
	Kind ErrorKind
	Pos  int  // rune offset in the line
	Char rune // offending character, EmptyToken only
}

func (e *ScanError) Error() string {
	if e.Kind == EmptyToken {
		return fmt.Sprintf("scan: %s: unexpected %q at position %d", e.Kind, e.Char, e.Pos)
	}
	return fmt.Sprintf("scan: %s at position %d", e.Kind, e.Pos)
}
