/*
Package ports defines the driven ports (interfaces) of the quote wizard.

These interfaces decouple the wizard from external implementations, allowing
it to work with various storage backends, catalog sources and fulfilment
channels.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading wizard sessions.
  - DistributedLocker: Serialises concurrent intents against one session across replicas.
  - CatalogSource: Supplies product records (e.g., from Loam documents).
  - Enricher / EnrichmentCache: Refresh product data per channel, with caching.
  - Submitter: Hands the finalised order to the fulfilment channel.

Adapters prove conformance by running the contract suites in this package
(RunSessionStoreContract, RunEnrichmentCacheContract) from their own tests.
*/
package ports
