/*
Package domain contains the core models of the blocks page designer.

It defines the schema tree a page is built from, the path scheme used to
address nodes, and the error taxonomy shared by every other package. The
package is kept free of I/O and persistence concerns.

# Key Entities

  - Node: one page element, with ordered children and a non-owning parent link.
  - Path: the ordered child keys from the tree root to a node.
  - Page: the persisted unit, a schema tree plus version bookkeeping.
  - Collection / Field: data sources a block can bind to.
  - MutationEvent / PersistEvent: what observers are told about.
*/
package domain
