package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 80

// Outline prints a page tree as an indented outline. Markdown blocks are
// rendered inline when Markdown is set.
type Outline struct {
	Out      io.Writer
	Profile  termenv.Profile
	Markdown func(string) (string, error)
}

// NewOutline returns an outline for w. Colors and markdown rendering are
// only enabled when w is a terminal.
func NewOutline(w io.Writer) *Outline {
	o := &Outline{Out: w, Profile: termenv.Ascii}
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return o
	}
	o.Profile = termenv.EnvColorProfile()
	width := defaultWidth
	if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 20 {
		width = cols - 4
	}
	if render, err := NewRenderer(width); err == nil {
		o.Markdown = render
	}
	return o
}

// Print writes the page title line and its tree.
func (o *Outline) Print(page *domain.Page) {
	title := page.ID
	if page.Title != "" {
		title = page.Title + " (" + page.ID + ")"
	}
	fmt.Fprintf(o.Out, "%s  v%d\n", o.Profile.String(title).Bold(), page.Version)
	if page.Root == nil {
		return
	}
	for i, child := range page.Root.Children() {
		o.node(child, "", i == page.Root.Len()-1)
	}
}

func (o *Outline) node(n *domain.Node, indent string, last bool) {
	branch, next := "├─ ", "│  "
	if last {
		branch, next = "└─ ", "   "
	}
	fmt.Fprintf(o.Out, "%s%s%s\n", indent, branch, o.label(n))

	if text, ok := n.Default.(string); ok && text != "" && n.ReadPretty {
		o.markdown(text, indent+next)
	}
	kids := n.Children()
	for i, child := range kids {
		o.node(child, indent+next, i == len(kids)-1)
	}
}

func (o *Outline) label(n *domain.Node) string {
	color := "#a78bfa"
	switch {
	case grid.IsGrid(n), grid.IsRowOrCol(n):
		color = "#6b7280"
	case n.ReferenceKey != "" || n.Component == domain.ComponentFormField:
		color = "#f472b6"
	}
	name := o.Profile.String(n.Component).Foreground(o.Profile.Color(color)).String()
	var extra []string
	if n.Name != "" {
		extra = append(extra, n.Name)
	}
	if n.Title != "" {
		extra = append(extra, fmt.Sprintf("%q", n.Title))
	}
	if coll, ok := n.Prop(domain.PropCollectionName).(string); ok && coll != "" {
		extra = append(extra, "→ "+coll)
	}
	key := o.Profile.String("[" + n.Key + "]").Faint().String()
	if len(extra) == 0 {
		return name + " " + key
	}
	return name + " " + strings.Join(extra, " ") + " " + key
}

func (o *Outline) markdown(text, indent string) {
	if o.Markdown != nil {
		if out, err := o.Markdown(text); err == nil {
			text = strings.TrimSpace(out)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(o.Out, "%s  %s\n", indent, line)
	}
}
