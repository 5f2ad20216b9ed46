/*
Package ports defines the driven ports (interfaces) for the blocks designer.

These interfaces decouple the schema-tree engine from external implementations,
allowing a page to be persisted in various backends and bound to collections
served by different metadata services.

# Key Interfaces

  - PageStore: Responsible for persisting and loading whole pages.
  - SchemaPersister: Receives each structural change once it is applied locally.
  - CollectionService: Creates and lists the collections blocks bind to.
  - DistributedLocker: Provides distributed locking for concurrent page access.
*/
package ports
