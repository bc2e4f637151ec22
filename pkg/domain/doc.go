/*
Package domain contains the core domain models of the quoteflow wizard.

It defines the catalog records, the authored step definitions with their
visibility rules, and the persisted snapshot format. This package is kept pure
and free of I/O so every other layer (selection store, step engine, adapters)
can share the same vocabulary.

# Key Entities

  - Product: An immutable-by-identity catalog entry (price, weight, compatibility, per-channel variants).
  - StepDefinition: One stage of the wizard, gated by an optional VisibilityRule.
  - VisibilityRule: A tagged variant (always, requires, anyOf, allOf, malformed).
  - Snapshot: The versioned, persisted form of the selection state.
  - Session: A Snapshot plus the orchestration data needed to resume a wizard.
*/
package domain
