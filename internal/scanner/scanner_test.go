package scanner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/marcelocantos/crsh/internal/token"
)

var ignorePos = cmpopts.IgnoreFields(token.Token{}, "Pos")

func word(s string) token.Token { return token.NewWord(s, 0) }
func op(k token.Kind) token.Token { return token.New(k, 0) }

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []token.Token
	}{
		{
			name: "simple",
			line: "ls -a -b\n",
			want: []token.Token{word("ls"), word("-a"), word("-b"), op(token.EOF)},
		},
		{
			name: "pipeline",
			line: "cat myfile | grep -r | wc\n",
			want: []token.Token{
				word("cat"), word("myfile"), op(token.Pipe),
				word("grep"), word("-r"), op(token.Pipe),
				word("wc"), op(token.EOF),
			},
		},
		{
			name: "redirect",
			line: "grep hi < input >output",
			want: []token.Token{
				word("grep"), word("hi"),
				op(token.RedirectIn), word("input"),
				op(token.RedirectOut), word("output"),
				op(token.EOF),
			},
		},
		{
			name: "append is one operator",
			line: "grep hi myfile >>output",
			want: []token.Token{
				word("grep"), word("hi"), word("myfile"),
				op(token.RedirectAppend), word("output"),
				op(token.EOF),
			},
		},
		{
			name: "spaced angle brackets stay separate",
			line: "a > > b",
			want: []token.Token{
				word("a"), op(token.RedirectOut), op(token.RedirectOut), word("b"), op(token.EOF),
			},
		},
		{
			name: "quoted",
			line: "echo \"hi!     <\n\tthere&/;\"; cat 'my bad file name'",
			want: []token.Token{
				word("echo"), word("hi!     <\n\tthere&/;"),
				op(token.Separator),
				word("cat"), word("my bad file name"),
				op(token.EOF),
			},
		},
		{
			name: "quote glued to word starts a new word",
			line: `ab"cd"ef`,
			want: []token.Token{word("ab"), word("cd"), word("ef"), op(token.EOF)},
		},
		{
			name: "empty quotes",
			line: `echo ""`,
			want: []token.Token{word("echo"), word(""), op(token.EOF)},
		},
		{
			name: "separator without spaces",
			line: "cd /tmp;ls",
			want: []token.Token{word("cd"), word("/tmp"), op(token.Separator), word("ls"), op(token.EOF)},
		},
		{
			name: "non-ascii word",
			line: "echo héllo",
			want: []token.Token{word("echo"), word("héllo"), op(token.EOF)},
		},
		{
			name: "blank",
			line: " \t\r\n",
			want: []token.Token{op(token.EOF)},
		},
		{
			name: "empty",
			line: "",
			want: []token.Token{op(token.EOF)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Scan(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got, ignorePos); diff != "" {
				t.Errorf("Scan(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

// An unterminated quote is closed silently at end of input rather than
// reported. This pins the current behaviour.
func TestScanUnterminatedQuote(t *testing.T) {
	for _, line := range []string{`echo "abc def`, `echo 'abc def`} {
		got, err := Scan(line)
		if err != nil {
			t.Fatalf("Scan(%q): %v", line, err)
		}
		want := []token.Token{word("echo"), word("abc def"), op(token.EOF)}
		if diff := cmp.Diff(want, got, ignorePos); diff != "" {
			t.Errorf("Scan(%q) mismatch (-want +got):\n%s", line, diff)
		}
	}
}

func TestScanPositions(t *testing.T) {
	got, err := Scan("ls | wc >> 'o'")
	if err != nil {
		t.Fatal(err)
	}
	want := []token.Token{
		token.NewWord("ls", 0),
		token.New(token.Pipe, 3),
		token.NewWord("wc", 5),
		token.New(token.RedirectAppend, 8),
		token.NewWord("o", 11),
		token.New(token.EOF, 14),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestScanEmptyToken(t *testing.T) {
	tests := []struct {
		line string
		pos  int
		char rune
	}{
		{"echo &", 5, '&'},
		{"echo $HOME", 5, '$'},
		{"(ls)", 0, '('},
		{"ls *.go", 3, '*'},
	}
	for _, tt := range tests {
		_, err := Scan(tt.line)
		var se *ScanError
		if !errors.As(err, &se) {
			t.Fatalf("Scan(%q): expected *ScanError, got %v", tt.line, err)
		}
		if se.Kind != EmptyToken {
			t.Errorf("Scan(%q): kind = %v, want %v", tt.line, se.Kind, EmptyToken)
		}
		if se.Pos != tt.pos || se.Char != tt.char {
			t.Errorf("Scan(%q): got %q at %d, want %q at %d", tt.line, se.Char, se.Pos, tt.char, tt.pos)
		}
	}
}

func TestScanTrailingEOFOnly(t *testing.T) {
	got, err := Scan("a;b|c")
	if err != nil {
		t.Fatal(err)
	}
	eofs := 0
	for _, tok := range got {
		if tok.Kind == token.EOF {
			eofs++
		}
	}
	if eofs != 1 || got[len(got)-1].Kind != token.EOF {
		t.Errorf("expected exactly one trailing EOF, got %v", got)
	}
}

func TestPeekPastEnd(t *testing.T) {
	s := New("")
	_, err := s.peek()
	var se *ScanError
	if !errors.As(err, &se) || se.Kind != IndexOutOfBounds {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}
}
