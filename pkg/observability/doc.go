/*
Package observability provides Prometheus instrumentation for the wizard.

Metrics count intents, cascade clears, step views, submissions and enrichment
activity. Collectors are registered on a caller supplied prometheus.Registerer,
so tests can use a private registry and servers can expose them on /metrics.
*/
package observability
