// Package parser builds an AST from a token sequence by recursive descent.
//
//	Program  := Pipeline (';' Pipeline)* EOF
//	Pipeline := Command ('|' Command)*
//	Command  := Word+ Redirect*
//	Redirect := '<' Word | '>' Word | '>>' Word
package parser

import (
	"fmt"

	"github.com/marcelocantos/crsh/internal/ast"
	"github.com/marcelocantos/crsh/internal/scanner"
	"github.com/marcelocantos/crsh/internal/token"
)

// Parser consumes a token sequence exactly once.
type Parser struct {
	tokens []token.Token
	curr   int
}

// New returns a Parser over tokens, which should end with EOF.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses tokens into a *ast.Pipeline, or a *ast.Sequence when there
// is more than one pipeline.
func Parse(tokens []token.Token) (ast.Node, error) {
	return New(tokens).Parse()
}

// ParseLine scans and parses a line of input.
func ParseLine(line string) (ast.Node, error) {
	tokens, err := scanner.Scan(line)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// IsEmpty reports whether tokens hold nothing but the trailing EOF.
func IsEmpty(tokens []token.Token) bool {
	return len(tokens) == 1 && tokens[0].Kind == token.EOF
}

// Parse runs the parser. It must be called at most once.
func (p *Parser) Parse() (ast.Node, error) {
	first, err := p.pipeline()
	if err != nil {
		return nil, err
	}
	pipelines := []*ast.Pipeline{first}

	for {
		ok, err := p.match(token.Separator)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := p.pipeline()
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, next)
	}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != token.EOF {
		return nil, &ParseError{Kind: TokensNotParsed, Token: tok, Msg: "not all tokens were parsed"}
	}

	if len(pipelines) == 1 {
		return pipelines[0], nil
	}
	return ast.NewSequence(pipelines...), nil
}

func (p *Parser) pipeline() (*ast.Pipeline, error) {
	first, err := p.command()
	if err != nil {
		return nil, err
	}
	pl := ast.NewPipeline(first)

	for {
		ok, err := p.match(token.Pipe)
		if err != nil {
			return nil, err
		}
		if !ok {
			return pl, nil
		}
		next, err := p.command()
		if err != nil {
			return nil, err
		}
		pl.Commands = append(pl.Commands, next)
	}
}

func (p *Parser) command() (*ast.Command, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != token.Word {
		return nil, &ParseError{Kind: NotExpectedToken, Token: tok, Msg: "expected a command name"}
	}

	cmd := &ast.Command{}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != token.Word {
			break
		}
		p.advance()
		cmd.Words = append(cmd.Words, tok.Text)
	}

	for {
		r, ok, err := p.redirect()
		if err != nil {
			return nil, err
		}
		if !ok {
			return cmd, nil
		}
		cmd.Redirects = append(cmd.Redirects, r)
	}
}

// redirect parses one redirect if the next token starts one.
func (p *Parser) redirect() (ast.Redirect, bool, error) {
	tok, err := p.peek()
	if err != nil {
		return ast.Redirect{}, false, err
	}

	var kind ast.RedirectKind
	switch tok.Kind {
	case token.RedirectIn:
		kind = ast.ReadFrom
	case token.RedirectAppend:
		kind = ast.AppendTo
	case token.RedirectOut:
		kind = ast.WriteTo
	default:
		return ast.Redirect{}, false, nil
	}
	p.advance()

	// Accept "> >" as append for token streams that split the operator.
	if kind == ast.WriteTo {
		ok, err := p.match(token.RedirectOut)
		if err != nil {
			return ast.Redirect{}, false, err
		}
		if ok {
			kind = ast.AppendTo
		}
	}

	path, err := p.expectWord(kind)
	if err != nil {
		return ast.Redirect{}, false, err
	}
	return ast.Redirect{Kind: kind, Path: path}, true, nil
}

func (p *Parser) expectWord(after ast.RedirectKind) (string, error) {
	tok, err := p.peek()
	if err != nil {
		return "", err
	}
	if tok.Kind != token.Word {
		return "", &ParseError{
			Kind:  NotExpectedToken,
			Token: tok,
			Msg:   fmt.Sprintf("expected a file name after %q", after.String()),
		}
	}
	p.advance()
	return tok.Text, nil
}

func (p *Parser) match(kind token.Kind) (bool, error) {
	tok, err := p.peek()
	if err != nil {
		return false, err
	}
	if tok.Kind != kind {
		return false, nil
	}
	p.advance()
	return true, nil
}

func (p *Parser) peek() (token.Token, error) {
	if p.curr >= len(p.tokens) {
		return token.Token{}, &ParseError{Kind: IndexOutOfBounds, Msg: "lookahead past end of tokens"}
	}
	return p.tokens[p.curr], nil
}

func (p *Parser) advance() token.Token {
	tok := p.tokens[p.curr]
	p.curr++
	return tok
}
