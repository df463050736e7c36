package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/go-drift/e2e/pkg/semantics"
)

func init() {
	RegisterCommand(&Command{
		Name:  "source",
		Short: "Print the accessibility tree of a screen",
		Long: `Launch the fixture headless and print the accessibility tree of a
screen, the same tree WDA clients see through /source.

Flags:
  --route ROUTE       Screen to show: /, /list or /drag (default: /)
  --format FORMAT     tree, xml or json (default: tree)
` + appFlagsHelp,
		Usage: "fixture source [--route ROUTE] [--format tree|xml|json]",
		Run:   runSource,
	})
}

var sourceStyles = struct {
	Type   lipgloss.Style
	Name   lipgloss.Style
	Frame  lipgloss.Style
	Hidden lipgloss.Style
}{
	Type:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7B61FF")),
	Name:   lipgloss.NewStyle().Bold(true),
	Frame:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	Hidden: lipgloss.NewStyle().Faint(true),
}

func runSource(args []string) error {
	fs := newFlagSet("source")
	route := fs.String("route", "/", "screen to show")
	format := fs.String("format", "tree", "tree, xml or json")
	cfg, err := parse(fs, args)
	if err != nil {
		return err
	}
	log := cfg.Logger()
	log.SetLevel(logrus.WarnLevel)

	a, loop, err := headless(cfg, log, *route)
	if err != nil {
		return err
	}
	defer loop.Close()
	defer a.Dispose()

	tree := a.Tree()
	switch *format {
	case "tree":
		writeTree(stdout, tree)
	case "xml":
		src, err := tree.XMLSource()
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, src)
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tree.JSONSource())
	default:
		return fmt.Errorf("unknown format %q (use tree, xml or json)", *format)
	}
	return nil
}

// writeTree prints one line per node, indented by depth.
func writeTree(w io.Writer, tree *semantics.Tree) {
	tree.Walk(func(n *semantics.Node, depth int) bool {
		line := sourceStyles.Type.Render(n.Type.ShortName())
		if name := n.Name(); name != "" {
			line += " " + sourceStyles.Name.Render(fmt.Sprintf("%q", name))
		}
		if n.Value != "" && n.Value != n.Name() {
			line += fmt.Sprintf(" value=%q", n.Value)
		}
		r := n.Rect
		line += " " + sourceStyles.Frame.Render(fmt.Sprintf("{%g, %g, %g, %g}", r.Left, r.Top, r.Width(), r.Height()))
		if !tree.Visible(n) {
			line = sourceStyles.Hidden.Render(line + " (not visible)")
		}
		fmt.Fprintln(w, strings.Repeat("  ", depth)+line)
		return true
	})
}
