/*
Package ports defines the driven ports (interfaces) for the sinew engine.

These interfaces decouple the compiler and the HTTP API from storage backends.

# Key Interfaces

  - AssetLoader: Retrieves graph and machine documents (e.g., from a directory, Redis or memory).
  - AssetStore: An AssetLoader accepting writes.
  - Watchable: Notifies about changed assets for hot reload.

RunAssetLoaderContract and RunAssetStoreContract are reusable test suites for adapters.
*/
package ports
