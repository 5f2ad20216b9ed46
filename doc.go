/*
Package blocks is a page designer engine: it assembles pages out of nested
blocks (tables, forms, charts, markdown, fields) described by a schema tree.

Every menu choice becomes a structural change on the tree. The engine keeps
content inside a Grid → Grid.Row → Grid.Col layout, assigns fresh keys to
everything it inserts, tracks which data fields are displayed, and hands each
change to a persistence collaborator after applying it locally.

# Usage

	eng, err := blocks.New(blocks.WithStore(file.New(".blocks/pages")))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s, err := eng.Open(ctx, "orders")
	if err != nil {
		log.Fatal(err)
	}

	// Drop a table on the empty page. The page root is a Grid, so the
	// table is wrapped in a fresh row and column.
	ch, err := s.AddBlock(ctx, blocks.Selection{Key: "Table", NewCollection: true}, nil, blocks.InsertAfter)
	if err != nil {
		log.Fatal(err)
	}

	// Put a chart beside it; the chart gets its own row.
	_, err = s.AddBlock(ctx, blocks.Selection{Key: "Chart.Bar"}, ch.Content, blocks.InsertAfter)

A persistence failure is returned as a *domain.PersistenceError and leaves
the local tree changed. Session.Reload restores the durable copy.
*/
package blocks
