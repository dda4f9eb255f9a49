package ast

import (
	"fmt"
	"strings"
)

// Dump renders n as an indented tree, one node per line.
func Dump(n Node) string {
	var sb strings.Builder
	switch n := n.(type) {
	case *Sequence:
		sb.WriteString("sequence\n")
		for _, p := range n.Pipelines {
			dumpPipeline(&sb, p, 1)
		}
	case *Pipeline:
		dumpPipeline(&sb, n, 0)
	case nil:
		sb.WriteString("<nil>\n")
	default:
		fmt.Fprintf(&sb, "<unknown %T>\n", n)
	}
	return sb.String()
}

func dumpPipeline(sb *strings.Builder, p *Pipeline, depth int) {
	indent(sb, depth)
	sb.WriteString("pipeline\n")
	for _, c := range p.Commands {
		indent(sb, depth+1)
		sb.WriteString("command")
		for _, w := range c.Words {
			fmt.Fprintf(sb, " %q", w)
		}
		sb.WriteByte('\n')
		for _, r := range c.Redirects {
			indent(sb, depth+2)
			fmt.Fprintf(sb, "redirect %s %q\n", r.Kind, r.Path)
		}
	}
}

func indent(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
}
