package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/blocks/pkg/domain"
	"github.com/aretw0/blocks/pkg/grid"
)

// GraphOverlay marks nodes to highlight on the graph.
type GraphOverlay struct {
	// Displayed holds the keys of nodes showing a collection field.
	Displayed []string
	// Current is the key of the node under the cursor.
	Current string
}

// GenerateMermaid produces a Mermaid flowchart of a page tree. Shapes:
//   - Grid: ((Circle))
//   - Row and column: [[Subroutine]]
//   - Form field: [/Parallelogram/]
//   - Any other block: [Rectangle]
func GenerateMermaid(root *domain.Node, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if root == nil {
		return sb.String()
	}

	root.Walk(func(n *domain.Node) bool {
		id := sanitizeMermaidID(n.Key)
		opener, closer := "[", "]"
		switch {
		case grid.IsGrid(n):
			opener, closer = "((", "))"
		case grid.IsRowOrCol(n):
			opener, closer = "[[", "]]"
		case n.Component == domain.ComponentFormField || n.ReferenceKey != "":
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label(n), closer)

		for _, child := range n.Children() {
			fmt.Fprintf(&sb, "    %s --> %s\n", id, sanitizeMermaidID(child.Key))
		}
		return true
	})

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef displayed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, key := range overlay.Displayed {
			id := sanitizeMermaidID(key)
			if id != "" && !seen[id] {
				seen[id] = true
				fmt.Fprintf(&sb, "    class %s displayed;\n", id)
			}
		}
		if overlay.Current != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.Current))
		}
	}
	return sb.String()
}

// label shows the component, plus the name or title when there is one.
func label(n *domain.Node) string {
	text := n.Component
	if text == "" {
		text = string(n.Type)
	}
	switch {
	case n.Name != "":
		text += " <br/> " + n.Name
	case n.Title != "":
		text += " <br/> " + n.Title
	}
	return strings.ReplaceAll(text, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_")
	return r.Replace(id)
}
