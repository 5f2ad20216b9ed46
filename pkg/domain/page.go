package domain

import "time"

// Page is the persisted unit: one schema tree plus bookkeeping.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title,omitempty"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
	Root      *Node     `json:"schema"`
}

// NewPage creates an empty page whose root is a Grid with no rows.
func NewPage(id, rootKey string) *Page {
	root := NewNode(rootKey, KindVoid, ComponentGrid)
	return &Page{
		ID:        id,
		Root:      root,
		UpdatedAt: time.Now().UTC(),
	}
}

// Clone deep-copies the page, including its tree.
func (p *Page) Clone() *Page {
	cp := *p
	if p.Root != nil {
		cp.Root = p.Root.Clone()
	}
	return &cp
}
