/*
Package dsl builds page schema trees in Go.

It is the programmatic counterpart of a stored page document: tests, demos
and tools can describe a grid layout with a fluent builder instead of
hand-assembling nodes and attaching children one by one.

Example usage:

	page, err := dsl.Page("orders", dsl.Grid("root",
		dsl.Row("r1",
			dsl.Col("c1",
				dsl.Block("t1", "Table").Bind("orders"),
			),
		),
		dsl.Row("r2",
			dsl.Col("c2",
				dsl.Field("f1", "email"),
			),
		),
	)).Title("Orders").Build()
*/
package dsl
